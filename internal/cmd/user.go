package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

func newUserCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:     "user <id>...",
		Aliases: []string{"users", "u"},
		Short:   "Show subscriber details",
		Long: strings.TrimSpace(`
Fetch subscriber profiles with get_user_details.

Several ids are looked up concurrently. The API rate-limits this endpoint
per user, so keep --concurrency low for long lists.
`),
		Example: strings.TrimSpace(`
  vb user 01234567890A=
  vb user id1 id2 --json --query '.[].data.name'
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids := splitList(args)
			if err := validation.ValidateReceivers(ids, 0); err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			client, err := getClient()
			if err != nil {
				return err
			}

			if len(ids) == 1 {
				resp, err := lookupUser(cmd.Context(), client, ids[0])
				if err != nil {
					return err
				}
				if isJSON(cmd) {
					return printJSON(cmd, resp)
				}
				var details viber.UserDetails
				if err := resp.Decode(&details); err != nil {
					return err
				}
				return printUser(cmd, details.User)
			}

			results := runBulkOperation(cmd.Context(), ids, int64(concurrency), false, nil,
				func(ctx context.Context, id string) (viber.User, error) {
					resp, err := lookupUser(ctx, client, id)
					if err != nil {
						return viber.User{}, err
					}
					var details viber.UserDetails
					err = resp.Decode(&details)
					return details.User, err
				})
			return printBulkResults(cmd, results, "OK")
		}),
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Parallel lookups for multiple ids")
	flagAlias(cmd.Flags(), "concurrency", "cc")
	return cmd
}

func lookupUser(ctx context.Context, client viber.Requester, id string) (viber.Response, error) {
	return withRetry(ctx, flags.Retries, func() (viber.Response, error) {
		return client.Request(ctx, viber.PathGetUserDetails, viber.UserDetailsRequest{ID: id})
	})
}

func printUser(cmd *cobra.Command, u viber.User) error {
	api := ""
	if u.APIVersion > 0 {
		api = strconv.Itoa(u.APIVersion)
	}
	return newFormatter(cmd).KeyValue(
		"ID", u.ID,
		"Name", u.Name,
		"Avatar", u.Avatar,
		"Country", u.Country,
		"Language", u.Language,
		"Device", strings.TrimSpace(u.DeviceType+" "+u.PrimaryDeviceOS),
		"Viber", u.ViberVersion,
		"API version", api,
	)
}
