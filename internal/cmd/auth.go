package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/viber/viber-cli/internal/config"
	"github.com/viber/viber-cli/internal/debug"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage bot credentials",
		Long:    "Store Viber bot auth tokens in your OS keychain under named profiles.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthUseCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		envFile  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a bot auth token",
		Long: strings.TrimSpace(`
Save a Viber bot auth token to your OS keychain.

The token is taken from --token, or from VIBER_AUTH_TOKEN in --env-file.
Unless --no-verify is set, the token is checked with get_account_info
before it is stored.
`),
		Example: strings.TrimSpace(`
  vb auth login --token 445da6az1s345z78-dazcczb2542zv51a-e0vc5fva17480im9
  vb auth login --token TOKEN --profile staging --proxy https://proxy.example.com/forward
  vb auth login --env-file .env
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := flags.Profile
			p := config.Profile{
				Token:    strings.TrimSpace(flags.Token),
				Host:     strings.TrimSpace(flags.Host),
				ProxyURL: strings.TrimSpace(flags.Proxy),
			}

			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				applyAuthEnvFileRuntimeVars(envVars)
				fillProfileFromEnvFile(&p, envVars)
				if profile == "" {
					profile = strings.TrimSpace(envVars["VIBER_PROFILE"])
				}
			}

			if p.Token == "" {
				return fmt.Errorf("--token is required (or VIBER_AUTH_TOKEN in --env-file)")
			}
			if p.Host != "" {
				if err := validation.ValidateAPIHost(p.Host); err != nil {
					return fmt.Errorf("invalid value for --host: %w", err)
				}
			}
			if p.ProxyURL != "" {
				if err := validation.ValidateProxyURL(p.ProxyURL); err != nil {
					return fmt.Errorf("invalid value for --proxy: %w", err)
				}
			}

			var name string
			if !noVerify {
				client := viber.New(p.Token, p.Host, viber.WithProxy(p.ProxyURL), viber.WithTimeout(flags.Timeout),
					viber.WithUserAgent(newClientFactory().userAgent))
				// host falls back to VIBER_HOST only
				if err := client.Configure(config.Chain{{Origin: config.OriginEnv, Source: config.EnvSource{}}}); err != nil {
					return err
				}
				resp, err := client.GetAccountInfo(cmd.Context(), struct{}{})
				if err != nil {
					return fmt.Errorf("token verification failed: %w", err)
				}
				var info viber.AccountInfo
				if err := resp.Decode(&info); err == nil {
					name = info.Name
				}
			}

			if err := config.SaveProfile(profile, p); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"saved":   true,
					"profile": profileName(profile),
					"token":   debug.Redact(p.Token),
				}
				if name != "" {
					payload["account_name"] = name
				}
				return printJSON(cmd, payload)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Credentials saved.")
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", profileName(profile))
			if name != "" {
				_, _ = fmt.Fprintf(out, "  Account: %s\n", name)
			}
			if p.Host != "" {
				_, _ = fmt.Fprintf(out, "  Host: %s\n", p.Host)
			}
			if p.ProxyURL != "" {
				_, _ = fmt.Fprintf(out, "  Proxy: %s\n", p.ProxyURL)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Load VIBER_* values from a .env file")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Store the token without calling get_account_info")
	flagAlias(cmd.Flags(), "env-file", "env")
	flagAlias(cmd.Flags(), "no-verify", "nv")

	return cmd
}

func profileName(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}
	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}
	return envVars, nil
}

func fillProfileFromEnvFile(p *config.Profile, envVars map[string]string) {
	if p.Token == "" {
		p.Token = strings.TrimSpace(envVars["VIBER_AUTH_TOKEN"])
	}
	if p.Token == "" {
		p.Token = strings.TrimSpace(envVars["VIBER_TOKEN"])
	}
	if p.Host == "" {
		p.Host = strings.TrimSpace(envVars["VIBER_HOST"])
	}
	if p.ProxyURL == "" {
		p.ProxyURL = strings.TrimSpace(envVars["VIBER_PROXY_URL"])
	}
}

// applyAuthEnvFileRuntimeVars copies keyring settings from --env-file into
// the process environment when they are not already exported.
func applyAuthEnvFileRuntimeVars(envVars map[string]string) {
	keys := []string{
		"VIBER_KEYRING_BACKEND",
		"VIBER_KEYRING_PASSWORD",
		"VIBER_CREDENTIALS_DIR",
	}
	for _, key := range keys {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if value := strings.TrimSpace(envVars[key]); value != "" {
			_ = os.Setenv(key, value)
		}
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials would be used",
		Example: strings.TrimSpace(`
  vb auth status
  vb auth status --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			resolved, err := settingsChain().Resolve(viber.ClientName)
			if err != nil {
				return err
			}
			profile := flags.Profile
			if profile == "" {
				profile, _ = config.ActiveProfile()
			}

			if resolved.Token == "" {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{
						"authenticated": false,
						"message":       "Not authenticated. Run 'vb auth login --token <token>'.",
					})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'vb auth login --token <token>' or set VIBER_AUTH_TOKEN.")
				return nil
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated": true,
					"token":         debug.Redact(resolved.Token),
					"source":        resolved.TokenOrigin,
					"host":          resolved.Host,
				}
				if resolved.TokenOrigin == config.OriginProfile {
					payload["profile"] = profileName(profile)
				}
				if p := resolved.ProxyURL(); p != "" {
					payload["proxy"] = p
				}
				return printJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  Token: %s\n", debug.Redact(resolved.Token))
			_, _ = fmt.Fprintf(out, "  Source: %s\n", resolved.TokenOrigin)
			if resolved.TokenOrigin == config.OriginProfile {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profileName(profile))
			}
			_, _ = fmt.Fprintf(out, "  Host: %s\n", resolved.Host)
			if p := resolved.ProxyURL(); p != "" {
				_, _ = fmt.Fprintf(out, "  Proxy: %s\n", p)
			}
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Remove the credentials of --profile (or the current profile) from the keychain.",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := flags.Profile
			if profile == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				profile = current
			}
			if _, err := config.LoadProfile(profile); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					if isJSON(cmd) {
						return printJSON(cmd, map[string]any{"removed": false, "profile": profileName(profile)})
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No credentials stored for profile %s.\n", profileName(profile))
					return nil
				}
				return err
			}
			if err := config.DeleteProfile(profile); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"removed": true, "profile": profileName(profile)})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for profile %s.\n", profileName(profile))
			return nil
		}),
	}
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if isJSON(cmd) {
				items := make([]map[string]any, 0, len(profiles))
				for _, p := range profiles {
					items = append(items, map[string]any{"name": p, "current": p == current})
				}
				return printJSON(cmd, items)
			}
			if len(profiles) == 0 {
				newFormatter(cmd).Empty("No profiles stored.")
				return nil
			}
			f := newFormatter(cmd)
			f.StartTable("NAME", "CURRENT")
			for _, p := range profiles {
				mark := ""
				if p == current {
					mark = "*"
				}
				f.Row(p, mark)
			}
			return f.EndTable()
		}),
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if _, err := config.LoadProfile(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					return fmt.Errorf("profile %q is not stored: %w", name, err)
				}
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"current": name})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %s.\n", name)
			return nil
		}),
	}
}
