package counterstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelRecordTuple(t *testing.T) {
	r := sentinelRecord("ccccccbchvth", 1000)
	require.Equal(t, int64(Sentinel), r.Tuple().Counter)
	require.Equal(t, int64(Sentinel), r.Tuple().Use)
	require.True(t, r.Active)
	require.Equal(t, int64(Sentinel), r.Modified)
}
