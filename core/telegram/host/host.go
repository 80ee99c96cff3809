// Package host binds the conversation runner to Telegram commands, free text
// and menu button presses.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/actions"
	"github.com/m3rciful/hrbot/core/conversation"
	"github.com/m3rciful/hrbot/core/logger"
	tg "github.com/m3rciful/hrbot/core/telegram"
	"github.com/m3rciful/hrbot/core/telegram/callbacks"
	"github.com/m3rciful/hrbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
	"github.com/m3rciful/hrbot/core/telegram/keyboard"
	"github.com/m3rciful/hrbot/core/telegram/state"
)

const (
	textFailed      = "Sorry, something went wrong. Please try again."
	textReset       = "Conversation cleared. Send any message to start again."
	textUnsupported = "I can only read text messages for now."
	textLimited     = "Please slow down a little."
)

// Conversations is the part of conversation.Runner the bot needs.
type Conversations interface {
	Handle(ctx context.Context, senderID string, turn conversation.Turn) (conversation.Reply, error)
	Reset(ctx context.Context, senderID string) error
}

// Host answers Telegram updates through Conversations.
type Host struct {
	conv  Conversations
	names func() []string
}

// New returns a host. names lists the registered actions for /actions.
func New(conv Conversations, names func() []string) *Host {
	return &Host{conv: conv, names: names}
}

// Register installs commands, the menu callback and the text fallback.
func (h *Host) Register(reg *tg.Registry) error {
	reg.SetTextFallback(h.Text)
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{conversation.CommandStart, commands.Command{
			Handler:     h.turn(conversation.Text(conversation.CommandStart)),
			Description: "Start a conversation with the HR assistant",
		}},
		{"/language", commands.Command{
			Handler:     h.turn(conversation.Payload(actions.PayloadLanguageOpt)),
			Description: "Choose your preferred language",
			Aliases:     []string{"lang"},
		}},
		{"/exit", commands.Command{
			Handler:     h.turn(conversation.Payload(actions.PayloadGoodbye)),
			Description: "End the conversation",
		}},
		{"/reset", commands.Command{Handler: h.Reset, Description: "Forget this conversation"}},
		{"/actions", commands.Command{Handler: h.Actions, Description: "List registered actions", AdminOnly: true}},
	}
	errs := []error{reg.RegisterCallback(keyboard.MenuUnique, h.Menu)}
	for _, c := range cmds {
		errs = append(errs, reg.RegisterCommand(c.name, c.cmd))
	}
	return errors.Join(errs...)
}

// Text forwards free text to the runner.
func (h *Host) Text(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}
	return h.turn(conversation.Text(text))(c)
}

// Menu forwards a pressed button's payload to the runner and answers the
// callback, with a toast when the press picked a language.
func (h *Host) Menu(c tele.Context) error {
	_, payload := callbacks.ParseCallbackData(c.Callback())
	if payload == "" {
		return c.Respond()
	}
	ctx := tghelpers.BuildContext(c)
	reply, err := h.conv.Handle(ctx, state.SenderID(c), conversation.Payload(payload))
	if err != nil {
		logger.Error(ctx, logger.CompTG, "menu.failed",
			slog.String("payload", logger.SanitizeLimit(payload, 64)),
			slog.String("err", err.Error()),
		)
		_ = c.Respond(&tele.CallbackResponse{Text: textFailed})
		return h.deliver(c, reply)
	}
	if reply.Language != "" {
		return c.Respond(&tele.CallbackResponse{Text: languageToast(reply.Language)})
	}
	_ = c.Respond()
	return h.deliver(c, reply)
}

// Reset clears the sender's conversation.
func (h *Host) Reset(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	if err := h.conv.Reset(ctx, state.SenderID(c)); err != nil {
		logger.Error(ctx, logger.CompTG, "reset.failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, textFailed)
	}
	return tghelpers.SendText(c, textReset)
}

// Actions lists the registered action names.
func (h *Host) Actions(c tele.Context) error {
	var names []string
	if h.names != nil {
		names = h.names()
	}
	if len(names) == 0 {
		return tghelpers.SendText(c, "No actions registered.")
	}
	return tghelpers.SendText(c, fmt.Sprintf("%d actions:\n%s", len(names), strings.Join(names, "\n")))
}

// Unsupported answers media updates.
func (h *Host) Unsupported(c tele.Context) error {
	return tghelpers.SendText(c, textUnsupported)
}

// Limited answers updates dropped by the rate limiter.
func (h *Host) Limited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: textLimited})
	}
	return tghelpers.SendText(c, textLimited)
}

func (h *Host) turn(t conversation.Turn) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		reply, err := h.conv.Handle(ctx, state.SenderID(c), t)
		if err != nil {
			logger.Error(ctx, logger.CompTG, "turn.failed",
				slog.String("action", reply.Action),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, textFailed)
		}
		if reply.Language != "" {
			return tghelpers.SendText(c, languageToast(reply.Language))
		}
		return h.deliver(c, reply)
	}
}

// deliver sends messages in order. Replies to one chat share a dispatcher
// shard so they arrive as uttered.
func (h *Host) deliver(c tele.Context, reply conversation.Reply) error {
	for _, m := range reply.Messages {
		text := m.Text
		if strings.TrimSpace(text) == "" {
			if !m.HasButtons() {
				continue
			}
			text = "…"
		}
		if err := tghelpers.SendMarkup(c, text, keyboard.Menu(m.Buttons)); err != nil {
			return err
		}
	}
	return nil
}

func languageToast(code string) string {
	for _, b := range actions.SupportedLanguages() {
		if b.Payload == code {
			return "Language set: " + b.Title
		}
	}
	return "Language set: " + code
}
