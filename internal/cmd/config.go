package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/config"
	"github.com/viber/viber-cli/internal/debug"
	"github.com/viber/viber-cli/internal/viber"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Inspect client configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show resolved settings and where each came from",
		Example: strings.TrimSpace(`
  vb config show
  VIBER_HOST=https://chatapi.viber.com/ vb config show --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			resolved, err := settingsChain().Resolve(viber.ClientName)
			if err != nil {
				return err
			}
			configPath := flags.Config
			if configPath == "" {
				configPath = config.DefaultConfigPath()
			}

			payload := map[string]any{
				"token":        debug.Redact(resolved.Token),
				"token_source": resolved.TokenOrigin,
				"host":         resolved.Host,
				"host_source":  resolved.HostOrigin,
				"config_file":  configPath,
			}
			if p := resolved.ProxyURL(); p != "" {
				payload["proxy"] = p
				payload["proxy_source"] = resolved.ProxyOrigin
			}
			if isJSON(cmd) {
				return printJSON(cmd, payload)
			}

			token := debug.Redact(resolved.Token)
			if token == "" {
				token = "(not set)"
			}
			return newFormatter(cmd).KeyValue(
				"Token", withOrigin(token, resolved.TokenOrigin),
				"Host", withOrigin(resolved.Host, resolved.HostOrigin),
				"Proxy", withOrigin(resolved.ProxyURL(), resolved.ProxyOrigin),
				"Config file", configPath,
			)
		}),
	}
}

func withOrigin(value, origin string) string {
	if value == "" || origin == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, origin)
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			path := flags.Config
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]string{"path": path})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
}
