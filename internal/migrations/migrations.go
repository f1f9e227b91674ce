// Package migrations applies the versioned schema kept under migrations/<target>.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Target names a database and the migrations directory that belongs to it.
type Target string

const (
	ClickHouse Target = "clickhouse"
	Postgres   Target = "postgres"
)

// Runner applies the migrations of one target.
type Runner struct {
	target Target
	dir    string
	dsn    string
	logger *zap.Logger
}

// New prepares a runner for baseDir/<target>. The DSN is rewritten for the
// migrate driver of the target.
func New(baseDir string, target Target, dsn string, logger *zap.Logger) (*Runner, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is required", target)
	}
	dir, err := filepath.Abs(filepath.Join(baseDir, string(target)))
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat migrations dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		target: target,
		dir:    dir,
		dsn:    DSN(target, dsn),
		logger: logger.With(zap.String("target", string(target))),
	}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (r *Runner) Up(ctx context.Context) error {
	return r.run(ctx, "up", (*migrate.Migrate).Up)
}

// Down reverts every applied migration.
func (r *Runner) Down(ctx context.Context) error {
	return r.run(ctx, "down", (*migrate.Migrate).Down)
}

func (r *Runner) run(ctx context.Context, direction string, step func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(r.dir), r.dsn)
	if err != nil {
		return fmt.Errorf("init %s migrate: %w", r.target, err)
	}
	m.Log = migrateLogger{logger: r.logger.Sugar()}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			r.logger.Warn("failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			r.logger.Warn("failed to close migration database", zap.Error(dbErr))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no migrations to apply", zap.String("direction", direction))
			return nil
		}
		return fmt.Errorf("migrate %s %s: %w", r.target, direction, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.logger.Info("migrations applied", zap.String("direction", direction))
	return nil
}

// DSN adapts a connection string to the scheme and options the migrate
// driver of target expects.
func DSN(target Target, dsn string) string {
	switch target {
	case Postgres:
		for _, prefix := range []string{"postgres://", "postgresql://"} {
			if strings.HasPrefix(dsn, prefix) {
				return "pgx5://" + strings.TrimPrefix(dsn, prefix)
			}
		}
	case ClickHouse:
		if !strings.Contains(dsn, "x-multi-statement=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			return dsn + sep + "x-multi-statement=true"
		}
	}
	return dsn
}

// ModuleRoot walks up from start, or the working directory when start is
// empty, to the directory holding go.mod.
func ModuleRoot(start string) (string, error) {
	dir := start
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working dir: %w", err)
		}
		dir = wd
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = next
	}
}

type migrateLogger struct {
	logger *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
