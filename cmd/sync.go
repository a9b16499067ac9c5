package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncModules []string
	syncDryRun  bool
)

// syncCmd runs one sync cycle and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync of every module (or the selected ones)",
	Long: `Fetches every configured module from Jamf Pro, updates the snapshot,
commits the changes and sends the notification.

Examples:
  # Sync everything
  change-monitor sync

  # Sync two modules without touching the snapshot
  change-monitor sync --module scripts --module policies --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncModules, "module", "m", nil, "Module to sync (repeatable, default all)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Compute changes without writing the snapshot")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()
	if syncDryRun {
		cfg.Snapshot.DryRun = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer app.close()

	res, err := app.service.Run(ctx, syncModules)
	if err != nil {
		return err
	}

	added, changed, removed := res.Report.Totals()
	logg.Info("Sync finished",
		zap.String("result", res.Outcome()),
		zap.Int("added", added),
		zap.Int("changed", changed),
		zap.Int("removed", removed),
		zap.Int("commits", res.Commits),
	)
	return res.Err()
}
