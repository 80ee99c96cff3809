package dialogue

import (
	"maps"
	"strings"
)

// SlotLanguage holds the user's preferred language code.
const SlotLanguage = "language"

// LatestMessage is the most recent user input known to the tracker.
type LatestMessage struct {
	Text string `json:"text"`
}

// Tracker is a snapshot of conversation state handed to an action.
// Actions read it and return proposed events; only the host applies them.
type Tracker struct {
	SenderID      string         `json:"sender_id"`
	Slots         map[string]any `json:"slots"`
	LatestMessage LatestMessage  `json:"latest_message"`
	Events        []Event        `json:"events"`
}

// NewTracker returns an empty tracker for senderID.
func NewTracker(senderID string) *Tracker {
	return &Tracker{SenderID: senderID, Slots: make(map[string]any)}
}

// Slot returns the raw slot value.
func (t *Tracker) Slot(name string) (any, bool) {
	if t == nil || t.Slots == nil {
		return nil, false
	}
	v, ok := t.Slots[name]
	return v, ok
}

// StringSlot returns a string slot or fallback when the slot is missing,
// nil, empty or not a string.
func (t *Tracker) StringSlot(name, fallback string) string {
	v, ok := t.Slot(name)
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// RecentUserTexts returns up to n user-authored texts, newest first.
func (t *Tracker) RecentUserTexts(n int) []string {
	if t == nil || n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := len(t.Events) - 1; i >= 0 && len(out) < n; i-- {
		if t.Events[i].Event == EventUser {
			out = append(out, t.Events[i].Text)
		}
	}
	return out
}

// Apply appends events to the log, updating slots and the latest message.
func (t *Tracker) Apply(events ...Event) {
	if t.Slots == nil {
		t.Slots = make(map[string]any)
	}
	for _, ev := range events {
		switch ev.Event {
		case EventSlot:
			if ev.Name == "" {
				continue
			}
			if ev.Value == nil {
				delete(t.Slots, ev.Name)
			} else {
				t.Slots[ev.Name] = ev.Value
			}
		case EventUser:
			t.LatestMessage = LatestMessage{Text: ev.Text}
		}
		t.Events = append(t.Events, ev)
	}
}

// Trim drops the oldest events so at most max remain. Slots are kept.
func (t *Tracker) Trim(max int) {
	if max <= 0 || len(t.Events) <= max {
		return
	}
	t.Events = append([]Event(nil), t.Events[len(t.Events)-max:]...)
}

// Clone returns a deep enough copy for a handler to read without aliasing
// host-owned maps and slices.
func (t *Tracker) Clone() *Tracker {
	if t == nil {
		return nil
	}
	c := &Tracker{
		SenderID:      t.SenderID,
		Slots:         maps.Clone(t.Slots),
		LatestMessage: t.LatestMessage,
		Events:        append([]Event(nil), t.Events...),
	}
	if c.Slots == nil {
		c.Slots = make(map[string]any)
	}
	return c
}
