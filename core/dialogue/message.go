package dialogue

// Button is a selectable quick reply: a display label plus the machine
// identifier the host receives when it is pressed.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Message is one outgoing reply.
type Message struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// HasButtons reports whether the message offers quick replies.
func (m Message) HasButtons() bool {
	return len(m.Buttons) > 0
}

// Dispatcher queues outgoing messages for delivery to the user.
type Dispatcher interface {
	Utter(msg Message)
}

// CollectingDispatcher keeps uttered messages in order so the host can
// deliver them after the action returns.
type CollectingDispatcher struct {
	messages []Message
}

// NewCollectingDispatcher returns an empty dispatcher.
func NewCollectingDispatcher() *CollectingDispatcher {
	return &CollectingDispatcher{}
}

// Utter records msg. Buttons are copied so later edits by the caller do not leak in.
func (d *CollectingDispatcher) Utter(msg Message) {
	if len(msg.Buttons) > 0 {
		msg.Buttons = append([]Button(nil), msg.Buttons...)
	}
	d.messages = append(d.messages, msg)
}

// Messages returns everything uttered so far.
func (d *CollectingDispatcher) Messages() []Message {
	return append([]Message(nil), d.messages...)
}
