package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/iocontext"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

func newBroadcastCmd() *cobra.Command {
	var (
		opts      messageOptions
		receivers []string
		toFile    string
	)

	cmd := &cobra.Command{
		Use:     "broadcast",
		Aliases: []string{"bc"},
		Short:   "Send one message to up to 300 subscribers in a single request",
		Long: strings.TrimSpace(`
Send a message with broadcast_message.

Receivers that could not be reached are listed from the reply's
failed_list; the command still exits 0 when the API accepted the request.
`),
		Example: strings.TrimSpace(`
  vb broadcast --to id1,id2,id3 --sender-name Bot --text "Sale starts today"
  vb broadcast --to-file subscribers.txt --sender-name Bot --text "Hi" --json
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ids := splitList(receivers)
			if toFile != "" {
				more, err := readIDFile(cmd, toFile)
				if err != nil {
					return err
				}
				ids = append(ids, more...)
			}
			if len(ids) == 0 {
				return fmt.Errorf("--to or --to-file is required")
			}
			if err := validation.ValidateReceivers(ids, viber.MaxBroadcastReceivers); err != nil {
				return err
			}
			msg, err := opts.build(cmd)
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			req := viber.BroadcastRequest{BroadcastList: ids, Message: msg}
			resp, err := withRetry(cmd.Context(), flags.Retries, func() (viber.Response, error) {
				return client.BroadcastMessage(cmd.Context(), req)
			})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}

			var result viber.BroadcastResult
			if err := resp.Decode(&result); err != nil {
				return err
			}
			delivered := len(ids) - len(result.FailedList)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Broadcast message %d accepted for %d of %d receivers\n",
				result.MessageToken, delivered, len(ids))
			if len(result.FailedList) == 0 {
				return nil
			}
			f := newFormatter(cmd)
			f.StartTable("RECEIVER", "STATUS", "MESSAGE")
			for _, fl := range result.FailedList {
				f.Row(fl.Receiver, strconv.Itoa(fl.Status)+" "+viber.StatusName(fl.Status), fl.StatusMessage)
			}
			return f.EndTable()
		}),
	}

	opts.register(cmd)
	cmd.Flags().StringArrayVar(&receivers, "to", nil, "Receiver id (repeatable or comma-separated)")
	cmd.Flags().StringVar(&toFile, "to-file", "", "Read receiver ids from a file, one per line (use - for stdin)")

	return cmd
}

// readIDFile reads one id per line, skipping blanks and # comments.
func readIDFile(cmd *cobra.Command, path string) ([]string, error) {
	data, err := iocontext.ReadInput(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	var ids []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, sc.Err()
}
