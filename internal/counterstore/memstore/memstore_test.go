package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/counterstore"
)

func TestGetAutovivifies(t *testing.T) {
	s := New()
	ctx := context.Background()

	r, err := s.Get(ctx, "ccccccbchvth", 1000)
	require.NoError(t, err)
	require.Equal(t, int64(counterstore.Sentinel), r.YkCounter)
	require.True(t, r.Active)

	r2, err := s.Get(ctx, "ccccccbchvth", 2000)
	require.NoError(t, err)
	require.Equal(t, r, r2, "second Get must return the same autovivified record")
}

func TestConditionalUpdateEnforcesI1(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "ccccccbchvth", 1000)
	require.NoError(t, err)

	ok, err := s.ConditionalUpdate(ctx, counterstore.Record{
		PublicName: "ccccccbchvth", YkCounter: 1, YkUse: 0, Modified: 1000,
	})
	require.NoError(t, err)
	require.True(t, ok, "first real update must succeed against the sentinel")

	// A non-advancing update must be rejected.
	ok, err = s.ConditionalUpdate(ctx, counterstore.Record{
		PublicName: "ccccccbchvth", YkCounter: 1, YkUse: 0, Modified: 1001,
	})
	require.NoError(t, err)
	require.False(t, ok, "replayed counters must not overwrite stored state")

	// A strictly later update must succeed.
	ok, err = s.ConditionalUpdate(ctx, counterstore.Record{
		PublicName: "ccccccbchvth", YkCounter: 1, YkUse: 1, Modified: 1002,
	})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestListActive(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _ = s.Get(ctx, "keyone", 1)
	_, _ = s.Get(ctx, "keytwo", 1)
	s.SetActive("keytwo", false)

	names, err := s.ListActive(ctx, "all")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"keyone"}, names)
}
