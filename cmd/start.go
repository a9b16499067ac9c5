package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"change-monitor/core/loader"
	"change-monitor/core/logger"
	"change-monitor/core/middleware/auth"
	"change-monitor/core/middleware/rayid"
	"change-monitor/core/scheduler"
	"change-monitor/feature/integrity"
	"change-monitor/feature/modules"
	"change-monitor/feature/monitor"
	"change-monitor/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is reported by /health.
var version = "dev"

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the monitor as a daemon",
	Long: `Runs a sync on the configured cron schedule and serves the status API
(health, run history, archived reports, metrics and manual triggers).`,
	RunE: runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer app.close()
	defer app.service.Wait()

	trigger := func() {
		if err := app.service.Start(ctx, nil); err != nil {
			logg.Warn("Scheduled run not started", zap.Error(err))
		}
	}
	c, err := scheduler.NewCron(cfg.Schedule.Cron, logg, trigger)
	if err != nil {
		return err
	}
	c.Start()
	defer c.Stop()
	logg.Info("Scheduled runs", zap.String("cron", cfg.Schedule.Cron))

	if cfg.Schedule.RunOnStart {
		trigger()
	}

	if !cfg.Server.Enabled {
		<-ctx.Done()
		logg.Info("Shutting down...")
		return nil
	}

	server := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager(logg)
	mgr.Register(modules.NewFeature(app.registry))
	mgr.Register(monitor.NewFeature(ctx, app.service))
	mgr.Register(integrity.NewFeature(app.integrity()))
	mgr.Register(status.NewFeature(&status.Service{
		History: historyReader(app),
		Archive: archiveReader(app),
		Monitor: app.service,
		Metrics: app.metrics.Handler(),
		Version: version,
	}))

	// RayID must be first to trace everything
	server.Use(rayid.New())

	server.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		start := time.Now()
		err := c.Next()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			l.Error("Request error", append(fields, zap.Error(err))...)
			return err
		}
		l.Debug("Request handled", fields...)
		return nil
	})

	server.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Public: []string{"/health", "/metrics"}}))

	if err := mgr.LoadAll(server); err != nil {
		return err
	}

	go func() {
		logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
		if err := server.Listen(cfg.Server.Addr()); err != nil {
			logg.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logg.Info("Shutting down server...")
	return server.ShutdownWithTimeout(30 * time.Second)
}

// historyReader avoids storing a typed nil in the interface.
func historyReader(app *application) status.HistoryReader {
	if app.history == nil {
		return nil
	}
	return app.history
}

func archiveReader(app *application) status.ArchiveReader {
	if app.archive == nil {
		return nil
	}
	return app.archive
}
