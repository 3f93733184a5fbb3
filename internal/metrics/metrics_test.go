package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCountsOutcomes(t *testing.T) {
	c := NewCommands("relationsdb", prometheus.NewRegistry())

	c.Observe("set_name", "ok", time.Millisecond)
	c.Observe("set_name", "ok", time.Millisecond)
	c.Observe("set_name", "NAME_TAKEN", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.total.WithLabelValues("set_name", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.total.WithLabelValues("set_name", "NAME_TAKEN")))
}

func TestObserveOnNilIsNoop(t *testing.T) {
	var c *Commands
	assert.NotPanics(t, func() { c.Observe("x", "ok", 0) })
}
