package dialogue

import "time"

// Event types understood by the tracker.
const (
	EventSlot = "slot"
	EventUser = "user"
	EventBot  = "bot"
)

// Event is a single tracker entry. The JSON shape matches the action server
// wire format so events can travel to and from the host unchanged.
type Event struct {
	Event     string  `json:"event"`
	Name      string  `json:"name,omitempty"`
	Value     any     `json:"value,omitempty"`
	Text      string  `json:"text,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// SlotSet proposes a slot update.
func SlotSet(name string, value any) Event {
	return Event{Event: EventSlot, Name: name, Value: value}
}

// UserUttered records text authored by the user.
func UserUttered(text string) Event {
	return Event{Event: EventUser, Text: text, Timestamp: now()}
}

// BotUttered records a message sent to the user.
func BotUttered(msg Message) Event {
	return Event{Event: EventBot, Text: msg.Text, Timestamp: now()}
}

func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
