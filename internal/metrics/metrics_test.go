package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCommandIncrementsLabeledCounter(t *testing.T) {
	m := New()
	m.ObserveCommand("GET", false)
	m.ObserveCommand("GET", false)
	m.ObserveCommand("GET", true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.commandsTotal.WithLabelValues("GET", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.commandsTotal.WithLabelValues("GET", "error")))
}

func TestObserveAOFWrite(t *testing.T) {
	m := New()
	m.ObserveAOFWrite()
	m.ObserveAOFWrite()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.aofWritesTotal))
}

func TestSetShardKeys(t *testing.T) {
	m := New()
	m.SetShardKeys(0, 42)
	m.SetShardKeys(1, 7)

	assert.Equal(t, float64(42), testutil.ToFloat64(m.keysGauge.WithLabelValues("0")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.keysGauge.WithLabelValues("1")))
}
