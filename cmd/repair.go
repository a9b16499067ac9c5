package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"change-monitor/core/vcs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var repairConfirm bool

// repairCmd discards and re-creates the git history of the snapshot.
var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Re-initialize the git history of the snapshot",
	Long: `Deletes the git history of the snapshot directory and commits every
top-level entry again as "Initializing: <entry>". The snapshot files are kept.

This is destructive: all past commits are lost.`,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().BoolVar(&repairConfirm, "yes", false, "Auto-confirm (non-interactive)")
	RootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()

	if !confirmDestructiveAction(cmd, cfg.Snapshot.Path) {
		logg.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	repo, err := vcs.Open(cfg.Snapshot.Path, cfg.Git, logg)
	if err != nil {
		return err
	}
	commits, err := repo.Repair(context.Background())
	if err != nil {
		return fmt.Errorf("repair history: %w", err)
	}
	logg.Info("Repository re-initialized", zap.String("path", repo.Root()), zap.Int("commits", commits))
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(cmd *cobra.Command, path string) bool {
	out := cmd.OutOrStdout()
	if repairConfirm {
		fmt.Fprintln(out, "Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprintf(out, "Type 'yes' to discard the git history of %s: ", path)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

