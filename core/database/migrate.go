package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

// RunMigrations brings the schema up to date. Migrations come from
// cfg.MigrationsDir when set and from the binary otherwise.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig) error {
	dsn := URL(cfg)
	if err := WaitForPostgres(ctx, dsn, 30*time.Second); err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate", slog.Any("err", err))
		return fmt.Errorf("database not ready: %w", err)
	}

	fsys, origin := migrationsFS(cfg.MigrationsDir)
	files := upFiles(fsys)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.Debug(ctx, logger.CompMigrate, "resolve",
		slog.String("source", origin),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	src, err := iofs.New(fsys, ".")
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", origin, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		logger.Error(ctx, logger.CompMigrate, "db.migrate", slog.Any("err", err))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	err = m.Up()
	took := time.Since(start)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error(ctx, logger.CompMigrate, "apply", slog.Any("err", err), slog.Duration("duration", took))
		return fmt.Errorf("migration execution failed: %w", err)
	}
	to, _, _ := m.Version()

	logger.Info(ctx, logger.CompMigrate, "summary",
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("files", len(selectApplied(files, uint64(from), uint64(to)))),
		slog.Duration("duration", took),
	)
	return nil
}

func migrationsFS(dir string) (fs.FS, string) {
	if dir = strings.TrimSpace(dir); dir != "" {
		return os.DirFS(dir), dir
	}
	sub, _ := fs.Sub(embedded, "migrations")
	return sub, "embedded"
}

// upFiles lists the up migrations in version order.
func upFiles(fsys fs.FS) []string {
	names, _ := fs.Glob(fsys, "*.up.sql")
	return names
}

// parseVersion reads the numeric prefix of a migration file name.
func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(path.Base(name), "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// selectApplied returns the files whose versions fall in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
