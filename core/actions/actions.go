// Package actions holds the HR assistant's response handlers. Each handler
// reads the language slot, localizes its fixed text and menu, and utters one
// message. Only the greeting proposes a slot change.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/langdetect"
	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
	"github.com/m3rciful/hrbot/core/translate"
)

const (
	defaultLanguage  = "en"
	defaultThreshold = 0.5
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Translator translate.Translator
	Detector   langdetect.Detector
	// DefaultLanguage is the language the fixed texts are written in.
	DefaultLanguage string
	// DetectionThreshold must be strictly exceeded to trust a detection.
	DetectionThreshold float64
	// TranslateFallback localizes action_default like its siblings.
	TranslateFallback bool
}

func (d Deps) withDefaults() Deps {
	d.DefaultLanguage = translate.NormalizeCode(d.DefaultLanguage)
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = defaultLanguage
	}
	if d.DetectionThreshold <= 0 {
		d.DetectionThreshold = defaultThreshold
	}
	return d
}

type handlers struct {
	deps Deps
}

// Register adds all thirteen actions to reg.
func Register(reg *dialogue.Registry, deps Deps) error {
	h := handlers{deps: deps.withDefaults()}
	table := []struct {
		name string
		run  dialogue.ActionFunc
	}{
		{Greet, h.greet},
		{Language, h.menu(textLanguage, languageMenu)},
		{PayrollMenu, h.menu(textPayrollMenu, payrollMenu)},
		{ReimbursementMenu, h.menu(textReimbursement, reimbursementMenu)},
		{PF, h.leaf(textPF)},
		{Pay, h.leaf(textPay)},
		{Attendance, h.leaf(textAttendance)},
		{TravelAllowance, h.leaf(textTravel)},
		{PetrolAllowance, h.leaf(textPetrol)},
		{DriverSalary, h.leaf(textDriver)},
		{Thanks, h.thanks},
		{Default, h.fallback},
		{Goodbye, h.leaf(textGoodbye)},
	}
	for _, a := range table {
		if err := reg.Register(dialogue.NewAction(a.name, instrument(a.name, a.run))); err != nil {
			return fmt.Errorf("actions: %w", err)
		}
	}
	return nil
}

// NewRegistry returns a registry preloaded with the catalog.
func NewRegistry(deps Deps) (*dialogue.Registry, error) {
	reg := dialogue.NewRegistry()
	if err := Register(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}

func instrument(name string, run dialogue.ActionFunc) dialogue.ActionFunc {
	return func(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
		ctx = logger.WithAction(ctx, name)
		if t != nil {
			ctx = logger.WithSender(ctx, t.SenderID)
		}
		start := time.Now()
		events, err := run(ctx, d, t)
		took := time.Since(start)

		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.ObserveAction(name, outcome, took)

		attrs := []slog.Attr{
			slog.String("outcome", outcome),
			slog.Duration("duration", logger.RoundMS(took)),
		}
		if err != nil {
			logger.Error(ctx, logger.CompActions, "action.run", append(attrs, slog.String("err", err.Error()))...)
			return nil, err
		}
		logger.Info(ctx, logger.CompActions, "action.run", attrs...)
		return events, nil
	}
}

// language reads the slot, falling back when it is missing or blank.
func (h handlers) language(t *dialogue.Tracker) string {
	return translate.NormalizeCode(t.StringSlot(dialogue.SlotLanguage, h.deps.DefaultLanguage))
}

// localize returns text verbatim for the default language and otherwise
// asks the translator, keeping the source text on any failure.
func (h handlers) localize(ctx context.Context, text, lang string) string {
	if lang == "" || lang == h.deps.DefaultLanguage {
		return text
	}
	return translate.Text(ctx, h.deps.Translator, text, lang)
}

// localizeButtons translates titles one call per button. Payloads are kept.
func (h handlers) localizeButtons(ctx context.Context, buttons []dialogue.Button, lang string) []dialogue.Button {
	out := make([]dialogue.Button, len(buttons))
	for i, b := range buttons {
		out[i] = dialogue.Button{Title: h.localize(ctx, b.Title, lang), Payload: b.Payload}
	}
	return out
}

func (h handlers) greet(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
	lang := translate.NormalizeCode(langdetect.Resolve(ctx, h.deps.Detector, t.LatestMessage.Text,
		h.deps.DetectionThreshold, h.deps.DefaultLanguage))
	logger.Debug(ctx, logger.CompActions, "greet.lang", slog.String("lang", lang))

	d.Utter(dialogue.Message{
		Text:    h.localize(ctx, textGreet, lang),
		Buttons: h.localizeButtons(ctx, greetMenu, lang),
	})
	return []dialogue.Event{dialogue.SlotSet(dialogue.SlotLanguage, lang)}, nil
}

func (h handlers) menu(text string, buttons []dialogue.Button) dialogue.ActionFunc {
	return func(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
		lang := h.language(t)
		d.Utter(dialogue.Message{
			Text:    h.localize(ctx, text, lang),
			Buttons: h.localizeButtons(ctx, buttons, lang),
		})
		return nil, nil
	}
}

func (h handlers) leaf(text string) dialogue.ActionFunc {
	return func(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
		d.Utter(dialogue.Message{Text: h.localize(ctx, text, h.language(t))})
		return nil, nil
	}
}

func (h handlers) thanks(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
	recent := t.RecentUserTexts(2)
	for i := range recent {
		recent[i] = logger.SanitizeLimit(recent[i], 120)
	}
	logger.Info(ctx, logger.CompActions, "thanks.context",
		slog.Int("count", len(recent)),
		slog.String("recent_user_texts", strings.Join(recent, " | ")),
	)
	d.Utter(dialogue.Message{Text: h.localize(ctx, textThanks, h.language(t))})
	return nil, nil
}

func (h handlers) fallback(ctx context.Context, d dialogue.Dispatcher, t *dialogue.Tracker) ([]dialogue.Event, error) {
	text := textDefault
	if h.deps.TranslateFallback {
		text = h.localize(ctx, text, h.language(t))
	}
	d.Utter(dialogue.Message{Text: text})
	return nil, nil
}
