package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type handlerConfig struct {
	level slog.Leveler
	out   *lineWriter
	enc   encoder
	order []string
}

// handler renders one flat line per record. Groups become dotted keys and
// durations become integer *_ms fields.
type handler struct {
	cfg    handlerConfig
	preset entry
	prefix string
}

func newHandler(cfg handlerConfig) *handler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.enc == nil {
		cfg.enc = jsonEncoder{}
	}
	if cfg.order == nil {
		cfg.order = defaultKeyOrder
	}
	return &handler{cfg: cfg}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.out == nil {
		return fmt.Errorf("logger: writer not initialized")
	}
	e := make(entry, 16+len(h.preset))
	for k, v := range h.preset {
		e[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.prefix, a)
		return true
	})
	e.fromContext(ctx)
	e["ts"] = r.Time.UTC().Format(tsLayout)
	e["level"] = levelName(r.Level)
	e.defaults(r.Message)

	line, err := h.cfg.enc.encode(e, h.cfg.order)
	if err != nil {
		return err
	}
	return h.cfg.out.Write(append(line, '\n'))
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make(entry, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		clone.preset[k] = v
	}
	for _, a := range attrs {
		clone.preset.add(h.prefix, a)
	}
	return &clone
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// entry is one log line before encoding.
type entry map[string]any

func (e entry) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := joinKey(prefix, a.Key)
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := normalize(key, a.Value); ok {
		e[k] = v
	}
}

func (e entry) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	for _, f := range contextFields {
		if _, set := e[f.key]; set {
			continue
		}
		switch v := f.get(ctx).(type) {
		case string:
			if v != "" {
				e[f.key] = v
			}
		case int64:
			if v != 0 {
				e[f.key] = v
			}
		}
	}
}

func (e entry) defaults(msg string) {
	if s, _ := e["event"].(string); s == "" {
		if msg == "" {
			msg = "unknown"
		}
		e["event"] = msg
	}
	if s, _ := e["component"].(string); s == "" {
		e["component"] = CompApp
	}
	for _, k := range enumFields {
		if s, ok := e[k].(string); ok {
			e[k] = strings.ToLower(s)
		}
	}
	for k, v := range e {
		if s, ok := v.(string); ok && s == "" {
			delete(e, k)
		}
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// msKey renames duration keys so the unit is in the name.
func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func normalize(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}
