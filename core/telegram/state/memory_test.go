package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hrbot/core/dialogue"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	tr, err := s.Load(ctx, "42")
	require.NoError(t, err)
	require.Empty(t, tr.Events)
	require.Zero(t, s.Len())

	require.NoError(t, s.Append(ctx, "42",
		dialogue.UserUttered("hello"),
		dialogue.SlotSet(dialogue.SlotLanguage, "ta"),
		dialogue.UserUttered("PF"),
		dialogue.UserUttered("thanks"),
	))
	tr, err = s.Load(ctx, "42")
	require.NoError(t, err)
	require.Len(t, tr.Events, 3)
	require.Equal(t, "ta", tr.StringSlot(dialogue.SlotLanguage, "en"))
	require.Equal(t, "thanks", tr.LatestMessage.Text)

	tr.Slots[dialogue.SlotLanguage] = "hi"
	again, err := s.Load(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, "ta", again.StringSlot(dialogue.SlotLanguage, "en"), "Load returns copies")

	require.NoError(t, s.Reset(ctx, "42"))
	require.Zero(t, s.Len())
}
