package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/dedupe"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

// sendOutcome is the per-receiver data of a send.
type sendOutcome struct {
	MessageToken any    `json:"message_token,omitempty"`
	Duplicate    bool   `json:"duplicate,omitempty"`
	Previous     string `json:"previous,omitempty"`
}

func newSendCmd() *cobra.Command {
	var (
		opts        messageOptions
		dedupeOpts  dedupeOptions
		receivers   []string
		concurrency int
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to one or more subscribers",
		Long: strings.TrimSpace(`
Send a message with send_message.

With several --to receivers the message is sent once per receiver,
concurrently. Use 'vb broadcast' to reach up to 300 receivers in a single
request instead.

--idempotency-key claims the key in Redis before each send, so a retried
command does not message the same receiver twice. Use "auto" for a fresh key.
`),
		Example: strings.TrimSpace(`
  vb send --to 01234567890A= --sender-name Bot --text "Hello"
  vb send --to id1,id2 --sender-name Bot --type picture --media https://example.com/a.jpg
  echo "Hi" | vb send --to 01234567890A= --sender-name Bot --text -
  vb send --to 01234567890A= --sender-name Bot --text Hi --idempotency-key order-42 --redis-url redis://localhost:6379/0
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ids := splitList(receivers)
			if len(ids) == 0 {
				return fmt.Errorf("--to is required")
			}
			if err := validation.ValidateReceivers(ids, 0); err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			msg, err := opts.build(cmd)
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			store, err := dedupeOpts.open(cmd.Context())
			if err != nil {
				return err
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}
			key := dedupeOpts.resolveKey()

			send := func(ctx context.Context, receiver string) (sendOutcome, error) {
				m := msg
				m.Receiver = receiver
				return sendOnce(ctx, client, store, key, m)
			}

			if len(ids) == 1 {
				out, err := send(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				return printSendOutcome(cmd, ids[0], out)
			}

			results := runBulkOperation(cmd.Context(), ids, int64(concurrency), progress && !isJSON(cmd), cmd.ErrOrStderr(), send)
			return printBulkResults(cmd, results, "SENT")
		}),
	}

	opts.register(cmd)
	cmd.Flags().StringArrayVar(&receivers, "to", nil, "Receiver id (repeatable or comma-separated)")
	cmd.Flags().IntVar(&concurrency, "concurrency", DefaultConcurrency, "Parallel sends for multiple receivers")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	cmd.Flags().StringVar(&dedupeOpts.Key, "idempotency-key", "", "Skip receivers already sent under this key (\"auto\" for a new key)")
	cmd.Flags().StringVar(&dedupeOpts.RedisURL, "redis-url", "", "Redis URL for --idempotency-key (env "+envRedisURL+")")
	flagAlias(cmd.Flags(), "concurrency", "cc")
	flagAlias(cmd.Flags(), "idempotency-key", "ik")

	return cmd
}

// claimReceiver claims claimKey. When it is already taken it returns the
// stored value instead. A key that expires between the claim and the read is
// claimed again once.
func claimReceiver(ctx context.Context, store claimStore, claimKey string) (string, bool, error) {
	for attempt := 0; ; attempt++ {
		ok, err := store.Claim(ctx, claimKey, dedupe.DefaultTTL)
		if err != nil || ok {
			return "", ok, err
		}
		prev, err := store.Get(ctx, claimKey)
		if err == nil {
			return prev, false, nil
		}
		if !errors.Is(err, dedupe.ErrNotFound) || attempt > 0 {
			return "", false, err
		}
	}
}

// sendOnce sends m, guarded by a dedupe claim when store is set.
func sendOnce(ctx context.Context, client *viber.Client, store *dedupe.Store, key string, m viber.Message) (sendOutcome, error) {
	var claimKey string
	if store != nil {
		claimKey = receiverKey(key, m.Receiver)
		prev, claimed, err := claimReceiver(ctx, store, claimKey)
		if err != nil {
			return sendOutcome{}, err
		}
		if !claimed {
			if dedupe.IsPending(prev) {
				return sendOutcome{}, fmt.Errorf("send to %s under this idempotency key is still in progress", m.Receiver)
			}
			return sendOutcome{Duplicate: true, Previous: prev}, nil
		}
	}

	resp, err := withRetry(ctx, flags.Retries, func() (viber.Response, error) {
		return client.SendMessage(ctx, m)
	})
	if err != nil {
		if store != nil {
			if relErr := store.Release(context.WithoutCancel(ctx), claimKey); relErr != nil {
				slog.Warn("failed to release idempotency key", "receiver", m.Receiver, "error", relErr)
			}
		}
		return sendOutcome{}, err
	}

	token := resp["message_token"]
	if store != nil {
		if err := store.Complete(ctx, claimKey, fmt.Sprint(token)); err != nil {
			slog.Warn("failed to record idempotency key", "receiver", m.Receiver, "error", err)
		}
	}
	return sendOutcome{MessageToken: token}, nil
}

func printSendOutcome(cmd *cobra.Command, receiver string, out sendOutcome) error {
	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"receiver":      receiver,
			"message_token": out.MessageToken,
			"duplicate":     out.Duplicate,
		})
	}
	if out.Duplicate {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Already sent to %s (message token %s); skipped.\n", receiver, out.Previous)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sent message %v to %s\n", out.MessageToken, receiver)
	return nil
}

// printBulkResults renders a fan-out and fails when any receiver failed.
func printBulkResults(cmd *cobra.Command, results []BulkResult, okLabel string) error {
	success, failure := countResults(results)
	if isJSON(cmd) {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	} else {
		f := newFormatter(cmd)
		f.StartTable("ID", "STATUS", "DETAIL")
		for _, r := range results {
			if r.Success {
				f.Row(r.ID, okLabel, bulkDetail(r.Data))
			} else {
				f.Row(r.ID, "FAILED", r.Error)
			}
		}
		if err := f.EndTable(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d succeeded, %d failed\n", success, failure)
	}

	if failure == 0 {
		return nil
	}
	first := firstError(results)
	return &handledError{
		err:      fmt.Errorf("%d of %d failed: %w", failure, len(results), first),
		exitCode: ExitCode(first),
	}
}

func bulkDetail(data any) string {
	switch v := data.(type) {
	case sendOutcome:
		if v.Duplicate {
			return "duplicate, skipped"
		}
		return fmt.Sprint(v.MessageToken)
	case viber.User:
		return v.Name
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
