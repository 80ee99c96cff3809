package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/logger"
)

const (
	connectTimeout = 5 * time.Second
	waitInterval   = 2 * time.Second
)

// DSN renders the libpq keyword form used by sqlx. Values with spaces or
// quotes are single-quoted.
func DSN(cfg config.DatabaseConfig) string {
	pairs := [][2]string{
		{"user", cfg.User}, {"password", cfg.Password}, {"host", cfg.Host},
		{"port", cfg.Port}, {"dbname", cfg.Name}, {"sslmode", cfg.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+dsnValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}

// URL renders the postgres:// form expected by golang-migrate.
func URL(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect opens a pooled connection and pings it once.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	where := slog.Group("",
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	)
	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		logger.Error(ctx, logger.CompDB, "db.connect", where, slog.Any("err", err), slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("db connect: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)

	logger.Info(ctx, logger.CompDB, "db.connect", where,
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", time.Since(start)),
	)
	return db, nil
}

// WaitForPostgres pings dsn every couple of seconds until the server
// answers, timeout passes or ctx ends.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tick := time.NewTicker(waitInterval)
	defer tick.Stop()
	for {
		err = db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-tick.C:
		}
	}
}
