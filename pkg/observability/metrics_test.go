package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/perennial"
)

func TestMetricsCountTheLoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()

	hooks.OnTransition("crew-a", nil, 5*time.Millisecond)
	hooks.OnTransition("crew-a", errors.New("slot taken"), time.Millisecond)
	hooks.OnActions("crew-a", 2, 3)
	hooks.OnRestore("crew-a", 4, nil)
	hooks.OnRestore("crew-a", 9, errors.New("corrupt"))
	hooks.OnDispatch("crew-a", perennial.KindTracked, nil)
	hooks.OnDispatch("crew-a", perennial.KindUntracked, errors.New("gateway down"))
	hooks.OnCheckpoint("crew-a", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues("tracked")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.actions.WithLabelValues("untracked")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.restored), "failed restores must not count")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("tracked", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("untracked", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkpoints.WithLabelValues("ok")))

	// The histogram times committed transitions only.
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var sampleCount uint64
	for _, mf := range mfs {
		if mf.GetName() == "perennial_transition_duration_seconds" {
			sampleCount = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), sampleCount)
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	assert.Panics(t, func() {
		NewMetrics(reg)
	}, "double registration must panic like any prometheus collector")
}
