package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timhilliard/yubistack/internal/queuestore"
)

func TestEnqueueDequeueRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, queuestore.Entry{
		Modified: 100, OTP: "otp1", Server: "http://sib1", ServerNonce: "n1", Info: "a=1",
	}))
	require.NoError(t, s.Enqueue(ctx, queuestore.Entry{
		Modified: 100, OTP: "otp1", Server: "http://sib2", ServerNonce: "n1", Info: "a=1",
	}))

	entries, err := s.Dequeue(ctx, 100, "n1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, s.Remove(ctx, "http://sib1", 100, "n1"))
	entries, err = s.Dequeue(ctx, 100, "n1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNullQueuedAndOrphans(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, queuestore.Entry{Modified: 1, Server: "a", ServerNonce: "n"}))

	orphans, err := s.ListOrphaned(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	s.MarkQueued("a", 1, "n", 555)
	orphans, err = s.ListOrphaned(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 0)

	require.NoError(t, s.NullQueued(ctx, "n"))
	orphans, err = s.ListOrphaned(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
}
