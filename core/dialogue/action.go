package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrActionNotFound is returned when no action is registered under a name.
var ErrActionNotFound = errors.New("dialogue: action not found")

// Action is a named unit of response logic invoked once per turn.
type Action interface {
	Name() string
	Run(ctx context.Context, d Dispatcher, t *Tracker) ([]Event, error)
}

// ActionFunc is the function form of Action.Run.
type ActionFunc func(ctx context.Context, d Dispatcher, t *Tracker) ([]Event, error)

type funcAction struct {
	name string
	run  ActionFunc
}

// NewAction adapts a bare function to the Action interface.
func NewAction(name string, run ActionFunc) Action {
	return funcAction{name: name, run: run}
}

func (a funcAction) Name() string { return a.name }

func (a funcAction) Run(ctx context.Context, d Dispatcher, t *Tracker) ([]Event, error) {
	return a.run(ctx, d, t)
}

// Result is the outcome of running one action.
type Result struct {
	Action   string
	Messages []Message
	Events   []Event
}

// Registry holds actions by name.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Empty and duplicate names are rejected.
func (r *Registry) Register(a Action) error {
	if a == nil {
		return errors.New("dialogue: nil action")
	}
	name := strings.TrimSpace(a.Name())
	if name == "" {
		return errors.New("dialogue: action name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("dialogue: action already registered: %s", name)
	}
	r.actions[name] = a
	return nil
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns registered action names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for k := range r.actions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Run executes the named action against a private copy of t.
func (r *Registry) Run(ctx context.Context, name string, t *Tracker) (Result, error) {
	a, ok := r.Lookup(name)
	if !ok {
		return Result{Action: name}, fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}
	if t == nil {
		t = NewTracker("")
	}
	d := NewCollectingDispatcher()
	events, err := a.Run(ctx, d, t.Clone())
	res := Result{Action: name, Messages: d.Messages(), Events: events}
	if err != nil {
		return res, fmt.Errorf("dialogue: action %s: %w", name, err)
	}
	return res, nil
}
