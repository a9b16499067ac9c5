package cmd

import (
	"context"
	"fmt"
	"time"

	"change-monitor/core/config"
	"change-monitor/core/database"
	"change-monitor/core/fetch"
	"change-monitor/core/history"
	"change-monitor/core/jamf"
	"change-monitor/core/logger"
	"change-monitor/core/metrics"
	"change-monitor/core/notify"
	"change-monitor/core/snapshot"
	"change-monitor/core/storage"
	"change-monitor/core/vcs"
	"change-monitor/feature/integrity"
	"change-monitor/feature/modules"
	"change-monitor/feature/monitor"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logg)
	return cfg, logg, nil
}

// application holds the wired components of a sync.
type application struct {
	cfg      *config.Config
	logger   *zap.Logger
	jamf     *jamf.Client
	registry *modules.Registry
	history  *history.Store
	archive  *storage.Archive
	metrics  *metrics.Metrics
	store    *snapshot.Store
	service  *monitor.Service
}

// newApplication wires every component named by cfg. Optional components
// (history, archive, notifiers) are left out when disabled.
func newApplication(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logg, metrics: metrics.New()}

	registry, err := modules.Load(afero.NewOsFs(), cfg.Modules)
	if err != nil {
		return nil, err
	}
	app.registry = registry

	client, err := jamf.NewClient(cfg.Jamf, logg, jamf.WithObserver(app.metrics))
	if err != nil {
		return nil, fmt.Errorf("create jamf client: %w", err)
	}
	app.jamf = client

	repo, err := vcs.Open(cfg.Snapshot.Path, cfg.Git, logg)
	if err != nil {
		return nil, err
	}

	app.store = snapshot.NewOSStore(cfg.Snapshot.Path)
	deps := monitor.Dependencies{
		Fetcher:  fetch.New(client, logg, fetch.WithRetry(uint(cfg.Jamf.Retries), 0)),
		Store:    app.store,
		Registry: registry,
		Sink:     repo,
		Notifier: notifiers(cfg, logg),
		Observer: app.metrics,
		Metrics:  app.metrics,
	}

	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect history database: %w", err)
		}
		app.history = history.NewStore(db, logg)
		if err := app.history.Migrate(ctx); err != nil {
			return nil, err
		}
		deps.History = app.history
		logg.Info("Connected to history database", zap.String("driver", cfg.Database.Driver))
	}

	if cfg.Storage.Enabled {
		sc, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		app.archive = storage.NewArchive(sc, cfg.Storage, logg)
		if err := app.archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		deps.Archive = app.archive
	}

	app.service = monitor.NewService(deps, monitor.Options{
		Concurrency:      cfg.Schedule.Concurrency,
		DryRun:           cfg.Snapshot.DryRun,
		Subject:          cfg.Mail.Subject,
		HistoryRetention: time.Duration(cfg.Database.RetentionDays) * 24 * time.Hour,
	}, logg)
	return app, nil
}

// integrity returns the snapshot checker.
func (a *application) integrity() *integrity.Service {
	var schema integrity.SchemaChecker
	if a.history != nil {
		schema = a.history
	}
	return integrity.NewService(a.store, a.registry, schema, a.logger)
}

// close invalidates the Jamf token.
func (a *application) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.jamf.Close(ctx); err != nil {
		a.logger.Warn("Failed to invalidate token", zap.Error(err))
	}
}

func notifiers(cfg *config.Config, logg *zap.Logger) notify.Notifier {
	var out notify.Multi
	if cfg.Mail.Enabled() {
		out = append(out, notify.NewMailer(cfg.Mail, logg))
	}
	if cfg.Slack.Enabled() {
		out = append(out, notify.NewSlack(cfg.Slack, logg))
	}
	if len(out) == 0 {
		logg.Warn("No notifier configured, changes are committed silently")
		return nil
	}
	return out
}
