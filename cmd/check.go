package cmd

import (
	"context"
	"errors"

	"change-monitor/core/database"
	"change-monitor/core/history"
	"change-monitor/core/snapshot"
	"change-monitor/feature/integrity"
	"change-monitor/feature/modules"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkFix bool

// errUnhealthy makes check exit non-zero when issues remain.
var errUnhealthy = errors.New("snapshot integrity issues found")

// checkCmd validates the snapshot against the configured modules.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the snapshot for stray, incomplete and orphaned files",
	Long: `Reports modules that were never synced, directories no module owns, files
that match no unit of their module and payload files without metadata.
With --fix, stray and incomplete files are removed.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Remove stray and incomplete files")
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()
	ctx := context.Background()

	registry, err := modules.Load(afero.NewOsFs(), cfg.Modules)
	if err != nil {
		return err
	}

	var schema integrity.SchemaChecker
	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		schema = history.NewStore(db, logg)
	}

	svc := integrity.NewService(snapshot.NewOSStore(cfg.Snapshot.Path), registry, schema, logg)
	report, err := svc.Check(ctx)
	if err != nil {
		return err
	}
	printIntegrityReport(logg, report)

	if checkFix {
		if err := svc.Fix(report); err != nil {
			return err
		}
		logg.Info("Fixed snapshot", zap.Int("removed", report.Fixed))
		if len(report.Orphans) > 0 || len(report.Schema) > 0 {
			return errUnhealthy
		}
		return nil
	}

	if !report.Healthy() {
		return errUnhealthy
	}
	return nil
}

// printIntegrityReport prints a formatted integrity report using logger.
func printIntegrityReport(l *zap.Logger, report *integrity.Report) {
	l.Info("Integrity report",
		zap.Bool("healthy", report.Healthy()),
		zap.Strings("missing", report.Missing),
		zap.Strings("orphans", report.Orphans),
		zap.Int("stray", len(report.Stray)),
		zap.Int("incomplete", len(report.Incomplete)),
	)
	for _, issue := range report.Stray {
		l.Warn("Stray file", zap.String("path", issue.Path()))
	}
	for _, issue := range report.Incomplete {
		l.Warn("Payload without metadata", zap.String("path", issue.Path()))
	}
	for table, cols := range report.Schema {
		l.Error("History table lacks columns", zap.String("table", table), zap.Strings("columns", cols))
	}
}
