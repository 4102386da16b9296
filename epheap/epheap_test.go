package epheap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/epheap"
)

func TestHeap_TopAscendingBySlack(t *testing.T) {
	h := epheap.New()
	h.Upsert("ep_a", 0.5)
	h.Upsert("ep_b", -1.2)
	h.Upsert("ep_c", 3.0)
	h.Upsert("ep_d", -0.1)

	top := h.Top(2)
	require.Len(t, top, 2)
	require.Equal(t, "ep_b", top[0].Endpoint)
	require.Equal(t, "ep_d", top[1].Endpoint)
	require.Equal(t, 4, h.Len())
}

func TestHeap_TopClampsToLen(t *testing.T) {
	h := epheap.New()
	h.Upsert("ep_a", 1.0)

	top := h.Top(5)
	require.Len(t, top, 1)
}

func TestHeap_UpsertFixesExistingPosition(t *testing.T) {
	h := epheap.New()
	h.Upsert("ep_a", 2.0)
	h.Upsert("ep_b", 1.0)

	h.Upsert("ep_a", -5.0)
	require.Equal(t, 2, h.Len())

	top := h.Top(1)
	require.Equal(t, "ep_a", top[0].Endpoint)
	require.Equal(t, -5.0, top[0].Slack)
}

func TestHeap_Remove(t *testing.T) {
	h := epheap.New()
	h.Upsert("ep_a", 1.0)
	h.Upsert("ep_b", 2.0)

	h.Remove("ep_a")
	require.Equal(t, 1, h.Len())

	slack, ok := h.Slack("ep_a")
	require.False(t, ok)
	require.Zero(t, slack)

	require.NotPanics(t, func() { h.Remove("ep_missing") })
}

func TestHeap_Slack(t *testing.T) {
	h := epheap.New()
	h.Upsert("ep_a", 0.25)

	slack, ok := h.Slack("ep_a")
	require.True(t, ok)
	require.Equal(t, 0.25, slack)
}
