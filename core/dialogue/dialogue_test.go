package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringSlotFallbacks(t *testing.T) {
	tr := NewTracker("u1")
	require.Equal(t, "en", tr.StringSlot(SlotLanguage, "en"))

	tr.Slots[SlotLanguage] = nil
	require.Equal(t, "en", tr.StringSlot(SlotLanguage, "en"))

	tr.Slots[SlotLanguage] = ""
	require.Equal(t, "en", tr.StringSlot(SlotLanguage, "en"))

	tr.Slots[SlotLanguage] = 42
	require.Equal(t, "en", tr.StringSlot(SlotLanguage, "en"))

	tr.Slots[SlotLanguage] = "hi"
	require.Equal(t, "hi", tr.StringSlot(SlotLanguage, "en"))

	var nilTracker *Tracker
	require.Equal(t, "en", nilTracker.StringSlot(SlotLanguage, "en"))
}

func TestRecentUserTextsNewestFirst(t *testing.T) {
	tr := NewTracker("u1")
	tr.Apply(
		UserUttered("first"),
		BotUttered(Message{Text: "reply"}),
		UserUttered("second"),
		SlotSet(SlotLanguage, "hi"),
		UserUttered("third"),
	)

	require.Equal(t, []string{"third", "second"}, tr.RecentUserTexts(2))
	require.Equal(t, []string{"third", "second", "first"}, tr.RecentUserTexts(5))
	require.Nil(t, tr.RecentUserTexts(0))
}

func TestApplyUpdatesSlotsAndLatestMessage(t *testing.T) {
	tr := NewTracker("u1")
	tr.Apply(UserUttered("namaste"), SlotSet(SlotLanguage, "hi"))

	require.Equal(t, "namaste", tr.LatestMessage.Text)
	require.Equal(t, "hi", tr.StringSlot(SlotLanguage, "en"))
	require.Len(t, tr.Events, 2)

	tr.Apply(SlotSet(SlotLanguage, nil))
	_, ok := tr.Slot(SlotLanguage)
	require.False(t, ok)
}

func TestTrimKeepsNewest(t *testing.T) {
	tr := NewTracker("u1")
	tr.Apply(UserUttered("a"), UserUttered("b"), UserUttered("c"))
	tr.Trim(2)
	require.Equal(t, []string{"c", "b"}, tr.RecentUserTexts(5))
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, Dispatcher, *Tracker) ([]Event, error) { return nil, nil }

	require.NoError(t, reg.Register(NewAction("action_a", noop)))
	require.Error(t, reg.Register(NewAction("action_a", noop)))
	require.Error(t, reg.Register(NewAction("  ", noop)))
	require.Error(t, reg.Register(nil))
	require.Equal(t, []string{"action_a"}, reg.Names())
}

func TestRegistryRunCollectsMessagesAndIsolatesTracker(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewAction("action_echo", func(_ context.Context, d Dispatcher, tr *Tracker) ([]Event, error) {
		tr.Slots["mutated"] = true
		d.Utter(Message{Text: "hello", Buttons: []Button{{Title: "Yes", Payload: "/yes"}}})
		return []Event{SlotSet(SlotLanguage, "hi")}, nil
	})))

	host := NewTracker("u1")
	res, err := reg.Run(context.Background(), "action_echo", host)
	require.NoError(t, err)
	require.Equal(t, "action_echo", res.Action)
	require.Len(t, res.Messages, 1)
	require.Equal(t, "hello", res.Messages[0].Text)
	require.True(t, res.Messages[0].HasButtons())
	require.Equal(t, []Event{SlotSet(SlotLanguage, "hi")}, res.Events)

	_, leaked := host.Slot("mutated")
	require.False(t, leaked)
}

func TestRegistryRunUnknownAction(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Run(context.Background(), "action_missing", nil)
	require.True(t, errors.Is(err, ErrActionNotFound))
}
