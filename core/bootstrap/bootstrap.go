package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error

	// Steps run in order once the database is ready.
	Steps []Step
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations and runs startup steps.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	if err := RunSteps(ctx, db, opts.Steps); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Result{DB: db}, nil
}

// RunSteps executes startup steps in order, stopping at the first required failure.
func RunSteps(ctx context.Context, db *sqlx.DB, steps []Step) error {
	for _, step := range steps {
		if step.Hook == nil {
			continue
		}
		start := time.Now()
		err := step.Hook.Run(ctx, db)
		took := logger.RoundMS(time.Since(start))
		if err != nil {
			logger.Warn(ctx, "app", "bootstrap.step",
				slog.String("status", "fail"),
				slog.String("step", step.Name),
				slog.Bool("optional", step.Optional),
				slog.Duration("duration", took),
				slog.String("err", err.Error()),
			)
			if step.Optional {
				continue
			}
			return fmt.Errorf("bootstrap: step %s failed: %w", step.Name, err)
		}
		logger.Info(ctx, "app", "bootstrap.step",
			slog.String("status", "ok"),
			slog.String("step", step.Name),
			slog.Duration("duration", took),
		)
	}
	return nil
}
