package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/update"
)

// version is set at build time via ldflags
var version = "dev"

// newUpdateChecker is replaced in tests.
var newUpdateChecker = update.NewChecker

func newVersionCmd() *cobra.Command {
	var noCheck bool

	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var result *update.CheckResult
			if !noCheck && strings.TrimSpace(os.Getenv(update.EnvDisable)) == "" {
				result = newUpdateChecker().Check(cmd.Context(), version)
			}

			if isJSON(cmd) {
				payload := map[string]any{"version": version}
				if result != nil {
					payload["latest_version"] = result.LatestVersion
					payload["update_available"] = result.UpdateAvailable
					if result.UpdateAvailable {
						payload["update_url"] = result.UpdateURL
					}
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "viber-cli version %s\n", version)
			if notice := result.Notice(); notice != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n", notice)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&noCheck, "no-update-check", false, "Skip the release check")
	return cmd
}
