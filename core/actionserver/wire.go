package actionserver

import "github.com/m3rciful/hrbot/core/dialogue"

// Request is the body a dialogue engine posts to /webhook.
type Request struct {
	NextAction string            `json:"next_action"`
	SenderID   string            `json:"sender_id"`
	Tracker    *dialogue.Tracker `json:"tracker"`
	Domain     map[string]any    `json:"domain,omitempty"`
	Version    string            `json:"version,omitempty"`
}

// Response carries the proposed events and the messages to deliver.
type Response struct {
	Events    []dialogue.Event   `json:"events"`
	Responses []dialogue.Message `json:"responses"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name,omitempty"`
}

// ActionInfo describes one registered action on GET /actions.
type ActionInfo struct {
	Name string `json:"name"`
}
