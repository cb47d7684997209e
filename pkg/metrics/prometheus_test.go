package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordForecast("", "ok")
	r.RecordForecast("forest", "error")
	r.RecordBackendTraining("forest", 0.3, 0.92)
	r.RecordEnsembleWeight("boosted", 0.4)
	r.RecordCache("hit")
	r.RecordCache("hit")
	r.RecordJob("done")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("auto", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("forest", "error")))
	assert.Equal(t, 0.92, testutil.ToFloat64(r.backendR2.WithLabelValues("forest")))
	assert.Equal(t, 0.4, testutil.ToFloat64(r.ensembleWeight.WithLabelValues("boosted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cache.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.Contains(t, mf.GetName(), "smef_")
	}
}
