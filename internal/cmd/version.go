package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bfhl/bfhl/internal/server/handlers"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build, runtime and dependency details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := handlers.CurrentVersion()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%s %s\n", info.App.Name, info.App.Version)
		if !extended {
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendRows([]table.Row{
			{"Commit", info.App.Commit},
			{"Built", info.App.BuildDate},
			{"Module", info.App.Module},
			{"Go", info.App.GoVersion},
			{"Platform", info.Runtime.Platform},
		})
		tw.AppendSeparator()
		tw.AppendRows([]table.Row{
			{"Gofulmen", info.Dependencies.Gofulmen},
			{"Crucible", info.Dependencies.Crucible},
		})
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show build, runtime and dependency details")
}
