package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/hrbot/core/actions"
	"github.com/m3rciful/hrbot/core/actionserver"
	coreconfig "github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/conversation"
	coredatabase "github.com/m3rciful/hrbot/core/database"
	"github.com/m3rciful/hrbot/core/dialogue"
	"github.com/m3rciful/hrbot/core/langdetect"
	"github.com/m3rciful/hrbot/core/logger"
	coretelegram "github.com/m3rciful/hrbot/core/telegram"
	"github.com/m3rciful/hrbot/core/telegram/host"
	"github.com/m3rciful/hrbot/core/telegram/router"
	"github.com/m3rciful/hrbot/core/telegram/state"
	"github.com/m3rciful/hrbot/core/translate"
)

const waitForDatabase = 30 * time.Second

// Options control the bootstrap pipeline. Nil hooks use the real
// implementations; tests swap them for fakes.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.DatabaseConfig) error

	Translator translate.Translator
	Detector   langdetect.Detector
}

// App holds everything the frontends share.
type App struct {
	Config   *coreconfig.Config
	DB       *sqlx.DB
	Registry *dialogue.Registry
	Store    dialogue.TrackerStore
	Runner   *conversation.Runner
}

// Run initializes the logger, builds the action registry and opens the
// conversation store, applying migrations when it lives in PostgreSQL.
func Run(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	reg, err := NewRegistry(cfg, opts.Translator, opts.Detector)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Registry: reg}
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		db, err := openDatabase(ctx, cfg.Database, opts)
		if err != nil {
			return nil, err
		}
		app.DB = db
		app.Store = coredatabase.NewTrackerStore(db, cfg.Storage.HistoryLimit)
	default:
		app.Store = state.NewMemoryStore(cfg.Storage.HistoryLimit)
	}
	app.Runner = conversation.NewRunner(reg, app.Store)

	logger.Info(ctx, logger.CompApp, "bootstrap.complete",
		slog.Int("actions", len(reg.Names())),
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("telegram", cfg.TelegramEnabled()),
		slog.Bool("action_server", cfg.ActionServer.Enabled),
	)
	return app, nil
}

// NewRegistry builds the HR action registry from configuration. A nil
// translator or detector is created from cfg.
func NewRegistry(cfg *coreconfig.Config, tr translate.Translator, det langdetect.Detector) (*dialogue.Registry, error) {
	if tr == nil {
		var err error
		tr, err = translate.New(cfg.Translation)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: translator: %w", err)
		}
	}
	if det == nil {
		det = langdetect.NewLingua(langdetect.Options{LowAccuracy: cfg.Detection.LowAccuracy})
	}
	reg, err := actions.NewRegistry(actions.Deps{
		Translator:         tr,
		Detector:           det,
		DefaultLanguage:    cfg.Assistant.DefaultLanguage,
		DetectionThreshold: cfg.Assistant.DetectionThreshold,
		TranslateFallback:  cfg.Assistant.TranslateFallback,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: actions: %w", err)
	}
	return reg, nil
}

func openDatabase(ctx context.Context, dbCfg coreconfig.DatabaseConfig, opts Options) (*sqlx.DB, error) {
	connect := opts.Connect
	if connect == nil {
		if err := coredatabase.WaitForPostgres(ctx, coredatabase.DSN(dbCfg), waitForDatabase); err != nil {
			return nil, fmt.Errorf("bootstrap: database unreachable: %w", err)
		}
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return db, nil
}

// Close releases the database pool if one was opened.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// Frontends returns every frontend enabled in the configuration.
func (a *App) Frontends() ([]Frontend, error) {
	var out []Frontend
	if a.Config.ActionServer.Enabled {
		out = append(out, a.actionServer())
	}
	if a.Config.TelegramEnabled() {
		opts, err := a.TelegramRunOptions()
		if err != nil {
			return nil, err
		}
		out = append(out, FrontendFunc{FrontendName: "telegram", RunFunc: func(ctx context.Context) error {
			return coretelegram.RunTelegram(ctx, opts)
		}})
	}
	return out, nil
}

func (a *App) actionServer() Frontend {
	cfg := a.Config.ActionServer
	srv := actionserver.New(a.Registry, actionserver.Options{
		Token:       cfg.Token,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     cfg.Metrics,
	})
	addr := net.JoinHostPort(cfg.Listen, strconv.Itoa(cfg.Port))
	return FrontendFunc{FrontendName: "action_server", RunFunc: func(ctx context.Context) error {
		return srv.ListenAndServe(ctx, addr)
	}}
}

// TelegramRunOptions wires the host handlers into the Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	h := host.New(a.Runner, a.Registry.Names)
	reg := coretelegram.NewRegistry()
	if err := h.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bootstrap: telegram handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.Config.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{Unsupported: h.Unsupported})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.Config,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.Config, h.Limited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			attrs := []slog.Attr{slog.String("commands", strings.Join(commandNames(rt.Registry), ","))}
			if rt.Bot != nil && rt.Bot.Me != nil {
				attrs = append(attrs, slog.String("bot", rt.Bot.Me.Username))
			}
			logger.Info(ctx, logger.CompTG, "ready", attrs...)
			return nil
		},
	}, nil
}

func commandNames(reg *coretelegram.Registry) []string {
	list := reg.ListCommands(false)
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Text)
	}
	return out
}
