package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donedone/donedone-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

var newUpdateChecker = update.NewChecker

func newVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if check {
				var err error
				result, err = newUpdateChecker().Check(cmd.Context(), version)
				if err != nil {
					return err
				}
			}

			if isJSON(cmd) {
				out := map[string]any{"version": version}
				if result != nil {
					out["update"] = result
				}
				return printJSON(cmd, out)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "donedone-cli version %s\n", version)
			if result != nil && result.UpdateAvailable {
				printIfNotQuiet(cmd, "\nUpdate available: %s -> %s\n", result.CurrentVersion, result.LatestVersion)
				if result.UpdateURL != "" {
					printIfNotQuiet(cmd, "Download: %s\n", result.UpdateURL)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Check for a newer release")
	return cmd
}
