// Package bot wires the marketplace dialog to Telegram and owns the process lifecycle.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/core/bootstrap"
	coredatabase "github.com/m3rciful/postbot/core/database"
	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/metrics"
	"github.com/m3rciful/postbot/core/ops"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/router"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/market/config"
	"github.com/m3rciful/postbot/market/dialog"
	"github.com/m3rciful/postbot/market/expiry"
	"github.com/m3rciful/postbot/market/ledger"
	"github.com/m3rciful/postbot/market/listings"
)

const evictionInterval = 5 * time.Minute

// App holds the running marketplace.
type App struct {
	cfg       *config.Config
	db        *sqlx.DB
	store     listings.Store
	sessions  *state.Manager
	scheduler *expiry.Scheduler
	transport *Transport
	handler   *Handler
	registry  *tg.Registry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Bootstrap connects storage, purges expired listings, and re-arms expiry for the rest.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	app := newApp(cfg, res.DB,
		listings.NewSQLStore(res.DB),
		ledger.NewSQLLedger(res.DB, cfg.Market.DefaultBalance),
	)
	if err := bootstrap.RunSteps(ctx, res.DB, app.startupSteps()); err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	if err := app.handler.Register(app.registry); err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("bot: register handlers: %w", err)
	}
	return app, nil
}

func newApp(cfg *config.Config, db *sqlx.DB, store listings.Store, wallets ledger.Ledger) *App {
	sessions := state.NewManager()
	scheduler := expiry.New(store)
	transport := NewTransport()
	ctrl := dialog.New(dialog.Deps{
		Sessions:     sessions,
		Listings:     store,
		Ledger:       wallets,
		Scheduler:    scheduler,
		Transport:    transport,
		AdminContact: cfg.Admin.Contact,
	})
	return &App{
		cfg:       cfg,
		db:        db,
		store:     store,
		sessions:  sessions,
		scheduler: scheduler,
		transport: transport,
		handler:   NewHandler(ctrl),
		registry:  tg.NewRegistry(),
	}
}

func (a *App) startupSteps() []bootstrap.Step {
	return []bootstrap.Step{
		{Name: "purge_expired", Hook: bootstrap.HookFunc(func(ctx context.Context, _ *sqlx.DB) error {
			_, err := Purge(ctx, a.store)
			return err
		})},
		{Name: "reschedule", Hook: bootstrap.HookFunc(func(ctx context.Context, _ *sqlx.DB) error {
			return Reschedule(ctx, a.store, a.scheduler)
		})},
	}
}

// TelegramRunOptions describes middleware, routes, and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := []tg.Route{router.CallbackRoute(a.registry, router.CallbackOptions{})}
	routes = append(routes, router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:        core.Telegram.AdminID,
		AdminUsernames: a.cfg.Admin.Usernames,
		OnAdminReject:  a.handler.OnAdminReject,
	})...)
	routes = append(routes, router.TextRoutes(a.handler, a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.transport.Bind(rt.Bot)

	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel
	a.scheduler.Start(bg)

	a.goRun(func() {
		a.sessions.RunEviction(bg, evictionInterval, a.cfg.SessionIdle())
	})
	if every := a.cfg.SweepInterval(); every > 0 {
		a.goRun(func() { a.sweep(bg, every) })
	}
	if a.cfg.Ops.Listen != "" {
		handler := ops.NewRouter(map[string]ops.Probe{
			"database": func(ctx context.Context) error { return coredatabase.Ping(ctx, a.db) },
		})
		a.goRun(func() {
			if err := ops.Serve(bg, a.cfg.Ops.Listen, handler); err != nil {
				logger.Ops.Error("ops server exited",
					slog.String("event", "ops.exit"),
					slog.String("err", err.Error()),
				)
			}
		})
	}

	logger.Info(ctx, "app", "market.ready",
		slog.Int("expiry_pending", a.scheduler.Pending()),
		slog.Int("callbacks", len(a.registry.ListCallbacks())),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.scheduler.Stop()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn(ctx, "app", "market.stop.timeout")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("bot: close database: %w", err)
		}
	}
	return nil
}

func (a *App) goRun(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

func (a *App) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := Purge(ctx, a.store); err != nil {
				logger.Warn(ctx, logger.CompListings, "listing.sweep.fail",
					slog.String("err", err.Error()),
				)
			}
		}
	}
}

// Purger removes listings whose lifetime has ended.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Purge deletes every expired listing and reports how many went away.
func Purge(ctx context.Context, store Purger) (int64, error) {
	n, err := store.PurgeExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge expired listings: %w", err)
	}
	if n > 0 {
		metrics.ListingsRemoved.WithLabelValues("purge").Add(float64(n))
	}
	logger.Info(ctx, logger.CompListings, "listing.purge",
		slog.Int64("removed", n),
	)
	return n, nil
}

// Reschedule arms the expiry of every active listing, e.g. after a restart.
func Reschedule(ctx context.Context, store listings.Store, scheduler dialog.Scheduler) error {
	active, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list active listings: %w", err)
	}
	for _, l := range active {
		scheduler.Schedule(l.ID, l.ExpiresAt)
	}
	logger.Info(ctx, logger.CompExpiry, "expiry.rearmed",
		slog.Int("listings", len(active)),
	)
	return nil
}
