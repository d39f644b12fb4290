package metrics

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsRoundsAndFailures(t *testing.T) {
	reg := promclient.NewRegistry()
	c, err := New("quorum_test", reg)
	require.NoError(t, err)

	c.RecordRound("review", "go", 2*time.Second)
	c.RecordRound("review", "go", 3*time.Second)
	c.RecordRound("decide", "pivot", time.Second)
	c.RecordSeatFailure("risk_reality", "timeout")
	c.RecordSeatAttempts(2)
	c.RecordSeatAttempts(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rounds.WithLabelValues("review", "go")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rounds.WithLabelValues("decide", "pivot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.seatFailures.WithLabelValues("risk_reality", "timeout")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.seatAttempts))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.RecordRound("review", "go", time.Second)
	c.RecordSeatFailure("risk_reality", "timeout")
	c.RecordSeatAttempts(1)
	assert.NoError(t, c.Serve(0))
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := promclient.NewRegistry()
	_, err := New("quorum_test", reg)
	require.NoError(t, err)
	_, err = New("quorum_test", reg)
	assert.Error(t, err)
}
