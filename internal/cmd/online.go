package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

func newOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online <id>...",
		Short: "Show the online status of up to 100 subscribers",
		Example: strings.TrimSpace(`
  vb online 01234567890A= 01234567890B=
  vb online id1,id2 --json
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids := splitList(args)
			if err := validation.ValidateReceivers(ids, viber.MaxOnlineIDs); err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := withRetry(cmd.Context(), flags.Retries, func() (viber.Response, error) {
				return client.GetOnline(cmd.Context(), viber.OnlineRequest{IDs: ids})
			})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}

			var status viber.OnlineStatus
			if err := resp.Decode(&status); err != nil {
				return err
			}
			f := newFormatter(cmd)
			f.StartTable("ID", "STATUS", "LAST ONLINE")
			for _, u := range status.Users {
				f.Row(u.ID, onlineLabel(u), lastOnline(u.LastOnline))
			}
			return f.EndTable()
		}),
	}
}

func onlineLabel(u viber.OnlineUser) string {
	if u.OnlineStatusMessage != "" {
		return u.OnlineStatusMessage
	}
	return strconv.Itoa(u.OnlineStatus)
}

// lastOnline renders the epoch-milliseconds timestamp of get_online.
func lastOnline(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
