package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/viber"
)

func newAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "account",
		Aliases: []string{"acct", "me"},
		Short:   "Show the bot's account info",
		Long:    "Fetch the bot's public account details, webhook and subscriber count with get_account_info.",
		Example: strings.TrimSpace(`
  vb account
  vb account --json --query '.subscribers_count'
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := withRetry(cmd.Context(), flags.Retries, func() (viber.Response, error) {
				return client.GetAccountInfo(cmd.Context(), struct{}{})
			})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}

			var info viber.AccountInfo
			if err := resp.Decode(&info); err != nil {
				return err
			}
			f := newFormatter(cmd)
			if err := f.KeyValue(
				"ID", info.ID,
				"Name", info.Name,
				"URI", info.URI,
				"Category", strings.Trim(info.Category+" / "+info.Subcategory, " /"),
				"Country", info.Country,
				"Subscribers", strconv.Itoa(info.SubscribersCount),
				"Webhook", info.Webhook,
				"Events", strings.Join(info.EventTypes, ", "),
			); err != nil {
				return err
			}
			if len(info.Members) == 0 {
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			f.StartTable("MEMBER", "NAME", "ROLE")
			for _, m := range info.Members {
				f.Row(m.ID, m.Name, m.Role)
			}
			return f.EndTable()
		}),
	}
}
