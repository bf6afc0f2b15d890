package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveEvent(true)
	r.ObserveEvent(false)
	r.ObserveEvent(true)
	r.ObserveLayout(3, 2)
	r.ObserveStage("assign", 1500*time.Millisecond)
	r.MarkSuccess(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.events.WithLabelValues("false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.maxLane))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.years))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.stageDuration.WithLabelValues("assign")))
	assert.Equal(t, 1.7e9, testutil.ToFloat64(r.lastSuccessTS))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveEvent(true)
	r.ObserveLayout(1, 1)

	path := filepath.Join(t.TempDir(), "milestones.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `milestones_events_total{done="true"} 1`)
	assert.Contains(t, text, "milestones_max_lane 1")
	assert.Contains(t, text, "# HELP milestones_years")
}

func TestWriteTextfileBadDir(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics: write textfile")
}
