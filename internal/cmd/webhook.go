package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
	"github.com/viber/viber-cli/internal/webhook"
)

// webhookEventTypes are the events set_webhook can subscribe to.
var webhookEventTypes = []string{
	viber.EventDelivered, viber.EventSeen, viber.EventFailed, viber.EventSubscribed,
	viber.EventUnsubscribed, viber.EventConversation, viber.EventMessage,
}

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webhook",
		Aliases: []string{"wh"},
		Short:   "Manage the callback webhook",
	}
	cmd.AddCommand(newWebhookSetCmd())
	cmd.AddCommand(newWebhookRemoveCmd())
	cmd.AddCommand(newWebhookListenCmd())
	return cmd
}

type webhookOptions struct {
	events    []string
	sendName  bool
	sendPhoto bool
}

func (o *webhookOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.events, "event", nil, "Event type to receive (repeatable): "+strings.Join(webhookEventTypes, ", "))
	cmd.Flags().BoolVar(&o.sendName, "send-name", false, "Include the user name in callbacks")
	cmd.Flags().BoolVar(&o.sendPhoto, "send-photo", false, "Include the user photo in callbacks")
}

func (o *webhookOptions) request(url string) (viber.WebhookRequest, error) {
	events := splitList(o.events)
	for _, e := range events {
		if !slices.Contains(webhookEventTypes, e) {
			return viber.WebhookRequest{}, fmt.Errorf("invalid value for --event %q: must be one of %s", e, strings.Join(webhookEventTypes, ", "))
		}
	}
	return viber.WebhookRequest{URL: url, EventTypes: events, SendName: o.sendName, SendPhoto: o.sendPhoto}, nil
}

func setWebhook(ctx context.Context, client viber.Requester, req viber.WebhookRequest) (viber.Response, error) {
	return withRetry(ctx, flags.Retries, func() (viber.Response, error) {
		return client.Request(ctx, viber.PathSetWebhook, req)
	})
}

func newWebhookSetCmd() *cobra.Command {
	var opts webhookOptions

	cmd := &cobra.Command{
		Use:   "set <https-url>",
		Short: "Register the webhook URL",
		Long: strings.TrimSpace(`
Register the callback URL with set_webhook. Viber calls the URL once to
verify it, so the endpoint must already be reachable over HTTPS.
`),
		Example: strings.TrimSpace(`
  vb webhook set https://bot.example.com/viber/webhook
  vb webhook set https://bot.example.com/viber/webhook --event delivered --event seen --send-name
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if err := validation.ValidateWebhookURL(url); err != nil {
				return fmt.Errorf("invalid webhook URL: %w", err)
			}
			req, err := opts.request(url)
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := setWebhook(cmd.Context(), client, req)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", url)
			if events := eventTypesOf(resp); len(events) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Events: %s\n", strings.Join(events, ", "))
			}
			return nil
		}),
	}
	opts.register(cmd)
	return cmd
}

func eventTypesOf(resp viber.Response) []string {
	raw, _ := resp["event_types"].([]any)
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func newWebhookRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm", "unset"},
		Short:   "Remove the webhook (set_webhook with an empty URL)",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			resp, err := setWebhook(cmd.Context(), client, viber.WebhookRequest{URL: ""})
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, resp)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Webhook removed")
			return nil
		}),
	}
}

func newWebhookListenCmd() *cobra.Command {
	var (
		opts     webhookOptions
		addr     string
		path     string
		register string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive callbacks and print them as JSON lines",
		Long: strings.TrimSpace(`
Run an HTTP listener for Viber callbacks. Each request is checked against
the X-Viber-Content-Signature header and printed to stdout as one JSON line.
/healthz and /metrics (Prometheus) are served alongside.

With --register the webhook is pointed at the given public URL once the
listener is up, and removed again on exit.
`),
		Example: strings.TrimSpace(`
  vb webhook listen --addr :8080
  vb webhook listen --addr :8080 --register https://bot.example.com/viber/webhook
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var req viber.WebhookRequest
			if register != "" {
				if err := validation.ValidateWebhookURL(register); err != nil {
					return fmt.Errorf("invalid value for --register: %w", err)
				}
				var err error
				if req, err = opts.request(register); err != nil {
					return err
				}
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			if !flags.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			srv := &webhook.Server{
				Token: client.Token(),
				Path:  path,
				Handler: func(_ context.Context, _ webhook.Event, raw []byte) error {
					var compact json.RawMessage = raw
					line, err := json.Marshal(compact)
					if err != nil {
						return err
					}
					mu.Lock()
					defer mu.Unlock()
					_, err = fmt.Fprintln(out, string(line))
					return err
				},
			}

			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Serve(ctx, ln) }()
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s%s\n", ln.Addr(), srvPath(path))

			if register != "" {
				if _, err := setWebhook(ctx, client, req); err != nil {
					stop()
					<-serveErr
					return fmt.Errorf("failed to register webhook: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Webhook registered at %s\n", register)
				defer func() {
					if _, err := setWebhook(context.WithoutCancel(cmd.Context()), client, viber.WebhookRequest{}); err != nil {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to remove webhook: %v\n", err)
					}
				}()
			}

			return <-serveErr
		}),
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&path, "path", webhook.DefaultPath, "Callback path")
	cmd.Flags().StringVar(&register, "register", "", "Public HTTPS URL to register while listening")
	return cmd
}

func srvPath(path string) string {
	if path == "" {
		return webhook.DefaultPath
	}
	return path
}
