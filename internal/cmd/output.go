package cmd

import (
	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/outfmt"
)

// printJSON writes v honoring --query, --compact-json and jsonl mode.
func printJSON(cmd *cobra.Command, v any) error {
	return outfmt.Write(cmd.Context(), cmd.OutOrStdout(), v)
}

// isJSON reports whether the command runs in a JSON output mode.
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

func newFormatter(cmd *cobra.Command) *outfmt.Formatter {
	return outfmt.NewFormatter(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}
