package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/telegram/commands"
)

var (
	// ErrInvalidRegistration reports a command or callback missing a required field.
	ErrInvalidRegistration = errors.New("telegram: invalid registration")
	// ErrDuplicate reports a second registration under the same name.
	ErrDuplicate = errors.New("telegram: already registered")
)

// Registry is the bot's routing table: slash commands, callback keys and the
// handlers used when nothing else matches.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry. Presses on unknown buttons get a
// short toast until SetCallbackNotFound says otherwise.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "This button is no longer available"})
		},
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	var err error
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		err = fmt.Errorf("%w: command %q needs a slash prefix", ErrInvalidRegistration, name)
	case cmd.Handler == nil || cmd.Description == "":
		err = fmt.Errorf("%w: command %q needs a handler and description", ErrInvalidRegistration, name)
	}
	if err == nil {
		r.mu.Lock()
		if _, taken := r.commands[name]; taken {
			err = fmt.Errorf("%w: command %s", ErrDuplicate, name)
		} else {
			r.commands[name] = cmd
		}
		r.mu.Unlock()
	}
	if err != nil {
		logger.Warn(logger.Background(), logger.CompTGWire, "register.command.skip",
			slog.String("name", name), slog.Any("err", err))
	}
	return err
}

// ListCommands returns commands sorted by name. visibleOnly leaves out
// hidden and admin-only ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, cmd := range r.commands {
		if !visibleOnly || cmd.Visible() {
			list = append(list, tele.Command{Text: name, Description: cmd.Description})
		}
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves text such as "start", "/lang" or "/language" to
// the canonical command name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name := "/" + strings.TrimPrefix(strings.TrimSpace(text), "/")
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		if slices.ContainsFunc(cmd.Aliases, func(a string) bool { return "/"+strings.TrimPrefix(a, "/") == name }) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a copy of the command table.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback binds a button unique key to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	var err error
	if key == "" || handler == nil {
		err = fmt.Errorf("%w: callback %q", ErrInvalidRegistration, key)
	} else {
		r.mu.Lock()
		if _, taken := r.callbacks[key]; taken {
			err = fmt.Errorf("%w: callback %s", ErrDuplicate, key)
		} else {
			r.callbacks[key] = handler
		}
		r.mu.Unlock()
	}
	if err != nil {
		logger.Warn(logger.Background(), logger.CompTGWire, "register.callback.skip",
			slog.String("key", key), slog.Any("err", err))
	}
	return err
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys in order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown buttons. Nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that is not a command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// SetupCommands publishes the visible commands as the bot's menu.
func SetupCommands(bot *tele.Bot, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(logger.Background(), logger.CompTGWire, "register.commands.set_failed", slog.Any("err", err))
		return
	}
	logger.Info(logger.Background(), logger.CompTGWire, "register.commands.set", slog.Int("count", len(list)))
}
