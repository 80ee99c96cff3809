package bootstrap

import "context"

// Frontend is one long-running surface of the app, such as the Telegram bot
// or the action server. Run blocks until ctx is cancelled.
type Frontend interface {
	Name() string
	Run(ctx context.Context) error
}

// FrontendFunc adapts a bare function to the Frontend interface.
type FrontendFunc struct {
	FrontendName string
	RunFunc      func(ctx context.Context) error
}

// Name returns the frontend label used in logs.
func (f FrontendFunc) Name() string { return f.FrontendName }

// Run executes the underlying function.
func (f FrontendFunc) Run(ctx context.Context) error { return f.RunFunc(ctx) }
