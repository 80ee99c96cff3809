// Package conversation is a minimal host: it keeps the tracker, picks the
// action for each turn and persists what the action proposes.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/hrbot/core/actions"
	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/logger"
)

// CommandStart opens a conversation.
const CommandStart = "/start"

// Turn is one user input: either free text or a pressed button payload.
type Turn struct {
	Text    string
	Payload string
}

// Text returns a free-text turn.
func Text(s string) Turn { return Turn{Text: s} }

// Payload returns a button-press turn.
func Payload(p string) Turn { return Turn{Payload: p} }

func (t Turn) utterance() string {
	if t.Payload != "" {
		return t.Payload
	}
	return t.Text
}

// Reply is what the host delivers back to the user.
type Reply struct {
	// Action is empty when the host handled the turn itself.
	Action   string
	Messages []dialogue.Message
	// Language is set when the turn selected a language.
	Language string
}

// Runner routes turns for many senders. Turns of one sender are serialized.
type Runner struct {
	registry *dialogue.Registry
	store    dialogue.TrackerStore
	routes   map[string]string

	mu    sync.Mutex
	locks map[string]*senderLock
}

// senderLock is dropped from Runner.locks once no turn holds or awaits it.
type senderLock struct {
	sync.Mutex
	refs int
}

// NewRunner wires a registry to a store.
func NewRunner(reg *dialogue.Registry, store dialogue.TrackerStore) *Runner {
	return &Runner{
		registry: reg,
		store:    store,
		routes:   actions.PayloadRoutes(),
		locks:    make(map[string]*senderLock),
	}
}

// Route picks the action for a turn given the current tracker. An empty
// name with a non-empty language means the turn only sets the slot.
func (r *Runner) Route(t *dialogue.Tracker, turn Turn) (action, language string) {
	if strings.TrimSpace(turn.Text) == CommandStart || turn.Payload == CommandStart {
		return actions.Greet, ""
	}
	if p := strings.TrimSpace(turn.Payload); p != "" {
		if actions.IsSupportedLanguage(p) {
			return "", p
		}
		if name, ok := r.routes[p]; ok {
			return name, ""
		}
		return actions.Default, ""
	}
	if _, ok := t.Slot(dialogue.SlotLanguage); !ok {
		return actions.Greet, ""
	}
	return actions.Thanks, ""
}

// Handle processes one turn for senderID.
func (r *Runner) Handle(ctx context.Context, senderID string, turn Turn) (Reply, error) {
	if senderID == "" {
		return Reply{}, errors.New("conversation: empty sender id")
	}
	if turn.utterance() == "" {
		return Reply{}, errors.New("conversation: empty turn")
	}
	unlock := r.lock(senderID)
	defer unlock()

	ctx = logger.WithSender(ctx, senderID)
	t, err := r.store.Load(ctx, senderID)
	if err != nil {
		return Reply{}, fmt.Errorf("conversation: load: %w", err)
	}
	user := dialogue.UserUttered(turn.utterance())
	action, lang := r.Route(t, turn)
	t.Apply(user)

	logger.Debug(ctx, logger.CompConversation, "turn.route",
		slog.String("action", action),
		slog.String("lang", lang),
		slog.Bool("button", turn.Payload != ""),
	)

	if action == "" {
		if err := r.store.Append(ctx, senderID, user, dialogue.SlotSet(dialogue.SlotLanguage, lang)); err != nil {
			return Reply{}, fmt.Errorf("conversation: save: %w", err)
		}
		logger.Info(ctx, logger.CompConversation, "language.set", slog.String("lang", lang))
		return Reply{Language: lang}, nil
	}

	res, err := r.registry.Run(ctx, action, t)
	if err != nil {
		// keep the user's words even when the action failed
		if saveErr := r.store.Append(ctx, senderID, user); saveErr != nil {
			logger.Error(ctx, logger.CompConversation, "turn.save", slog.String("err", saveErr.Error()))
		}
		return Reply{Action: action}, fmt.Errorf("conversation: %w", err)
	}

	events := make([]dialogue.Event, 0, 1+len(res.Events)+len(res.Messages))
	events = append(events, user)
	events = append(events, res.Events...)
	for _, m := range res.Messages {
		events = append(events, dialogue.BotUttered(m))
	}
	if err := r.store.Append(ctx, senderID, events...); err != nil {
		return Reply{}, fmt.Errorf("conversation: save: %w", err)
	}
	return Reply{Action: action, Messages: res.Messages}, nil
}

// Reset clears the conversation so the next message greets again.
func (r *Runner) Reset(ctx context.Context, senderID string) error {
	unlock := r.lock(senderID)
	defer unlock()
	if err := r.store.Reset(ctx, senderID); err != nil {
		return fmt.Errorf("conversation: reset: %w", err)
	}
	logger.Info(logger.WithSender(ctx, senderID), logger.CompConversation, "reset")
	return nil
}

// Registry exposes the action registry for admin listings.
func (r *Runner) Registry() *dialogue.Registry { return r.registry }

func (r *Runner) lock(senderID string) func() {
	r.mu.Lock()
	l, ok := r.locks[senderID]
	if !ok {
		l = &senderLock{}
		r.locks[senderID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, senderID)
		}
		r.mu.Unlock()
	}
}

func (r *Runner) heldLocks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
