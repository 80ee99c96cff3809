package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/hrbot/core/buildinfo"
	coreconfig "github.com/m3rciful/hrbot/core/config"
)

// Component names shared by call sites.
const (
	CompApp          = "app"
	CompTG           = "tg"
	CompTGWire       = "tg.wire"
	CompTGSender     = "tg.sender"
	CompActions      = "actions"
	CompConversation = "conversation"
	CompTranslate    = "svc.translate"
	CompDetect       = "svc.detect"
	CompActionServer = "action_server"
	CompDB           = "db"
	CompMigrate      = "db.migrate"
)

var (
	initOnce sync.Once
	stopOnce sync.Once
	out      *lineWriter
	files    []io.Closer
	level    slog.LevelVar
	debug    = newSampler(1, 50)
	trace    bool

	// L is the base logger. It stays nil until InitLogger runs and every
	// helper here tolerates that, so tests need no setup.
	L *slog.Logger
)

// InitLogger installs the structured logger described by cfg.Logging.
// Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	if cfg == nil {
		return errors.New("logger: nil config")
	}
	initOnce.Do(func() {
		lc := cfg.Logging
		level.Set(parseLevel(lc.Level))
		debug.Set(debugRatio(lc.DebugSample))
		trace = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		var sinks []io.Writer
		sinks, files = outputs(lc.Dir, lc.File)
		out = newLineWriter(sinks, 64*1024, 0)

		L = slog.New(newHandler(handlerConfig{
			level: &level,
			out:   out,
			enc:   pickEncoder(lc),
			order: keyOrder(lc.KeysOrder),
		}))
		slog.SetDefault(L)

		Info(context.Background(), CompApp, "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(lc)),
			slog.String("translation_provider", cfg.Translation.Provider),
			slog.String("storage", cfg.Storage.Driver),
		)
	})
	return nil
}

// Shutdown flushes pending lines and closes log files.
func Shutdown() error {
	var err error
	stopOnce.Do(func() {
		var errs []error
		if out != nil {
			errs = append(errs, out.Close())
		}
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(lc.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

func pickEncoder(lc coreconfig.LoggingConfig) encoder {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "json":
		return jsonEncoder{}
	case "kv", "text", "pretty":
		return kvEncoder{}
	}
	if p := profile(lc); p == "dev" || p == "debug" {
		return kvEncoder{}
	}
	return jsonEncoder{}
}

func keyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

func outputs(dir, file string) ([]io.Writer, []io.Closer) {
	sinks := []io.Writer{os.Stdout}
	dir, file = strings.TrimSpace(dir), strings.TrimSpace(file)
	if dir == "" || file == "" {
		return sinks, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create %s: %v", dir, err)
		return sinks, nil
	}
	f, err := os.OpenFile(filepath.Join(dir, file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open log file: %v", err)
		return sinks, nil
	}
	return append(sinks, f), []io.Closer{f}
}

// debugRatio maps the debug_sample setting; "0" or "off" logs every debug line.
func debugRatio(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	switch spec {
	case "":
		return 1, 50
	case "0", "off", "all":
		return 0, 0
	}
	num, den := parseRatio(spec)
	if num <= 0 || den <= 0 {
		return 1, 50
	}
	return num, den
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. TRACE=1 lets all of them through.
func ShouldSampleDebug() bool {
	return trace || debug.Allow()
}

// Component returns the base logger scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event writes one line at level. The logger comes from ctx when present.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	l := FromContext(ctx)
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Enabled(ctx, lvl) {
		return
	}
	head := make([]slog.Attr, 0, len(attrs)+2)
	if component != "" {
		head = append(head, slog.String("component", component))
	}
	if event != "" {
		head = append(head, slog.String("event", event))
	}
	l.LogAttrs(ctx, lvl, "", append(head, attrs...)...)
}

// Debug logs at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}
