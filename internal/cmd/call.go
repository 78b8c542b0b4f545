package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/debug"
	"github.com/viber/viber-cli/internal/iocontext"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

func newCallCmd() *cobra.Command {
	var (
		fields    []string
		rawFields []string
		inputFile string
		jsonBody  string
		dryRun    bool
		silent    bool
	)

	cmd := &cobra.Command{
		Use:     "call <endpoint>",
		Aliases: []string{"api"},
		Short:   "Call any API endpoint with a raw JSON body",
		Long: `Call any Viber API endpoint by name.

The endpoint accepts the raw path (send_message), the dotted name
(send.message) or the method name (SendMessage). Without a body the call
is a GET; with one it is a POST. Run 'vb endpoints' for the list.

The API reply is printed as-is. A reply whose status_message is not "ok"
is printed too, and the command exits with code 4.`,
		Example: `  # Account info (POSTs {})
  vb call get_account_info -d '{}'

  # Fields as strings, raw fields as JSON
  vb call send_message -f receiver=01234567890A= -f type=text -f text=Hello

  # Body from a file or stdin
  vb call broadcast_message -i body.json
  echo '{"ids":["01234567890A="]}' | vb call get_online -i -

  # Show the request without sending it
  vb call set_webhook -f url=https://example.com/hook --dry-run`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return endpointNames(toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			endpoint, ok := viber.Lookup(args[0])
			if !ok {
				msg := fmt.Sprintf("unknown endpoint %q", args[0])
				if suggestions := viber.Suggest(args[0], 1); len(suggestions) > 0 {
					msg += fmt.Sprintf(" (did you mean %q?)", suggestions[0])
				}
				return fmt.Errorf("%s", msg)
			}
			if jsonBody != "" && inputFile != "" {
				return fmt.Errorf("--body and --input cannot be combined")
			}

			var input []byte
			if inputFile != "" {
				data, err := iocontext.ReadInput(cmd.Context(), inputFile)
				if err != nil {
					return err
				}
				input = data
			}
			body, err := buildRequestBody(fields, rawFields, input, jsonBody)
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			if dryRun {
				return printDryRun(cmd, client, endpoint, body)
			}

			result, err := withRetry(cmd.Context(), flags.Retries, func() (viber.Result, error) {
				return client.Call(cmd.Context(), endpoint, body)
			})
			if err != nil {
				return err
			}

			if !silent {
				if isJSON(cmd) {
					if err := printJSON(cmd, result.Response); err != nil {
						return err
					}
				} else {
					if err := printIndented(cmd, result.Response); err != nil {
						return err
					}
				}
			}
			if result.Failure != nil {
				// the body is already printed; report only the exit status
				return &handledError{err: result.Failure, exitCode: ExitCode(result.Failure)}
			}
			return nil
		}),
	}

	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Request body field as key=value (string)")
	cmd.Flags().StringArrayVarP(&rawFields, "raw-field", "F", nil, "Request body field as key=value (JSON parsed)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
	cmd.Flags().StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON object")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the request instead of sending it")
	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "Suppress output")
	flagAlias(cmd.Flags(), "dry-run", "dr")

	return cmd
}

func printIndented(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// printDryRun renders the request NewRequest would send, token redacted.
func printDryRun(cmd *cobra.Command, builder viber.URLBuilder, endpoint string, body any) error {
	req, err := builder.NewRequest(cmd.Context(), endpoint, body)
	if err != nil {
		return err
	}
	headers := map[string]string{}
	for k := range req.Header {
		v := req.Header.Get(k)
		if http.CanonicalHeaderKey(k) == viber.HeaderAuthToken {
			v = debug.Redact(v)
		}
		headers[k] = v
	}
	payload := map[string]any{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headers,
	}
	if body != nil {
		payload["body"] = body
	}
	if isJSON(cmd) {
		return printJSON(cmd, payload)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s\n", req.Method, req.URL.String())
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "%s: %s\n", k, headers[k])
	}
	if body != nil {
		_, _ = fmt.Fprintln(out)
		return printIndented(cmd, body)
	}
	return nil
}

// buildRequestBody merges inline JSON, input and fields into one object.
// It returns nil when nothing was given, so the call goes out as a GET.
func buildRequestBody(fields, rawFields []string, input []byte, jsonBody string) (any, error) {
	body := make(map[string]any)
	provided := false

	if jsonBody != "" {
		if err := validation.ValidateJSONPayload(jsonBody); err != nil {
			return nil, fmt.Errorf("invalid --body: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonBody), &body); err != nil {
			return nil, fmt.Errorf("failed to parse --body JSON: %w", err)
		}
		provided = true
	}

	if input != nil {
		if err := validation.ValidateJSONPayload(string(input)); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
		if err := json.Unmarshal(input, &body); err != nil {
			return nil, fmt.Errorf("failed to parse input JSON: %w", err)
		}
		provided = true
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
		provided = true
	}

	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
		provided = true
	}

	if !provided {
		return nil, nil
	}
	return body, nil
}

// parseField parses a key=value field where value is a string
func parseField(field string) (string, string, error) {
	key, value, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid field format %q: must be key=value", field)
	}
	return key, value, nil
}

// parseRawField parses a key=value field where value is JSON
func parseRawField(field string) (string, any, error) {
	key, raw, ok := strings.Cut(field, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid raw field format %q: must be key=value", field)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid JSON in raw field %q: %w", key, err)
	}
	return key, value, nil
}
