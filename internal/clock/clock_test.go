package clock

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNonceShapeAndUniqueness(t *testing.T) {
	re := regexp.MustCompile(`^[A-Za-z0-9]+$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n, err := GenerateNonce()
		require.NoError(t, err)
		require.Len(t, n, NonceLen)
		require.True(t, re.MatchString(n))
		require.False(t, seen[n], "nonce collision")
		seen[n] = true
	}
}

func TestFixedClock(t *testing.T) {
	var s Source = Fixed(12345)
	require.Equal(t, int64(12345), s.Now())
}
