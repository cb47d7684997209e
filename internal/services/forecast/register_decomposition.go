//go:build !nodecomposition

package forecast

import "github.com/IanaraFer/dataSite-sub000/internal/domain/models"

func init() {
	Register(models.BackendDecomposition, func() Backend { return NewDecompositionBackend() })
}
