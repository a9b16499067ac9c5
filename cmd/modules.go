package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"change-monitor/feature/modules"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// modulesCmd lists the effective module set.
var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the configured modules",
	Long:  `Lists the built-in modules merged with the definitions of the modules file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		registry, err := modules.Load(afero.NewOsFs(), cfg.Modules)
		if err != nil {
			return err
		}
		return printModules(cmd, registry)
	},
}

func init() {
	RootCmd.AddCommand(modulesCmd)
}

func printModules(cmd *cobra.Command, registry *modules.Registry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAPI\tMODE\tPATH\tUNITS")
	for _, m := range registry.Describe() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Name, m.API, m.Mode, m.Path, strings.Join(m.Units, ","))
	}
	return w.Flush()
}
