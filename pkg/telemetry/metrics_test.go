package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterAddAndName(t *testing.T) {
	c, err := NewCounter("records_quarantined", Labels{"reason": "pii_detected"})
	require.NoError(t, err)
	c.Add(3)
	c.Add(2)
	require.Equal(t, int64(5), c.Value())
	require.Equal(t, "records_quarantined{reason=pii_detected}", c.Name())
}

func TestCounterRejectsNegativeDelta(t *testing.T) {
	c, err := NewCounter("x", nil)
	require.NoError(t, err)
	c.Add(-1)
	require.Equal(t, int64(0), c.Value())
}

func TestLabelsValidateBounds(t *testing.T) {
	big := Labels{}
	for i := 0; i < MaxLabelPairs+1; i++ {
		big[string(rune('a'+i))] = "v"
	}
	require.ErrorIs(t, big.Validate(), ErrInvalidLabels)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter("accepted", nil).Add(4)
	r.Counter("quarantined", nil).Add(1)

	snap := r.Snapshot()
	require.Equal(t, int64(4), snap["accepted"])
	require.Equal(t, int64(1), snap["quarantined"])
}
