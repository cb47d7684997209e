package forecast

import (
	"fmt"
	"sync"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[models.BackendTag]Builder)

	probeOnce sync.Once
	probed    models.Availability
)

func init() {
	Register(models.BackendForest, func() Backend { return NewForestBackend() })
}

// Register makes a backend available. Optional backends call it from init in
// build-tagged files, so a binary built without them advertises them as absent.
func Register(tag models.BackendTag, builder Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if builder == nil {
		panic(fmt.Sprintf("forecast: nil builder for backend %q", tag))
	}
	if _, dup := registry[tag]; dup {
		panic(fmt.Sprintf("forecast: backend %q registered twice", tag))
	}
	registry[tag] = builder
}

func lookup(tag models.BackendTag) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[tag]
	return b, ok
}

// Probe reports which backends this process can construct. The result is
// computed once and cached.
func Probe() models.Availability {
	probeOnce.Do(func() {
		usable := func(tag models.BackendTag) bool {
			b, ok := lookup(tag)
			return ok && b() != nil
		}
		probed = models.Availability{
			Decomposition: usable(models.BackendDecomposition),
			Boosted:       usable(models.BackendBoosted),
			Forest:        usable(models.BackendForest),
		}
	})
	return probed
}
