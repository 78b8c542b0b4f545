package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/viber/viber-cli/internal/debug"
	"github.com/viber/viber-cli/internal/iocontext"
	"github.com/viber/viber-cli/internal/outfmt"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output       string
	JSON         bool
	Query        string
	Compact      bool
	Debug        bool
	Quiet        bool
	AllowPrivate bool
	Timeout      time.Duration
	Retries      int

	Token   string
	Host    string
	Proxy   string
	Profile string
	Config  string
}

// flags holds the global command flags. It is reset at the start of every
// Execute call; tests rely on that for clean state.
var flags rootFlags

func defaultFlags() rootFlags {
	return rootFlags{
		Output:       defaultOutput(),
		AllowPrivate: parseBoolEnv("VIBER_ALLOW_PRIVATE"),
		Timeout:      viber.DefaultTimeout,
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("VIBER_OUTPUT")); value != "" {
		return normalizeOutputFormat(value)
	}
	return "text"
}

func normalizeOutputFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "ndjson" {
		return "jsonl"
	}
	return value
}

const rootLong = `vb talks to the Viber bot (Public Account) API.

Credentials are resolved from, in order: --token/--host/--proxy flags,
VIBER_AUTH_TOKEN/VIBER_HOST/VIBER_PROXY_URL, the "viber" section of
~/.config/viber-cli/config.yaml (or --config), and the keyring profile
saved with 'vb auth login'.`

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "vb",
		Short:              "CLI for the Viber bot API",
		Long:               rootLong,
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError suggests instead
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			flags.Output = normalizeOutputFormat(flags.Output)
			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			if flags.Query != "" && flags.Output != "json" && flags.Output != "jsonl" {
				if flagOrAliasChanged(cmd, "output") {
					return fmt.Errorf("--query requires --output json or jsonl (or --json)")
				}
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			if flags.Query != "" {
				ctx = outfmt.WithQuery(ctx, flags.Query)
			}

			if flags.Timeout < 0 {
				return fmt.Errorf("--timeout must be >= 0")
			}
			if flags.Retries < 0 {
				return fmt.Errorf("--retries must be >= 0")
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet {
				ioStreams.ErrOut = io.Discard
				if mode == outfmt.Text {
					ioStreams.Out = io.Discard
				}
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			validation.SetAllowPrivate(flags.AllowPrivate)
			if flags.AllowPrivate && !flags.Quiet {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning: allowing private/localhost URLs (use only with trusted targets).")
			}

			debug.SetupLogger(flags.Debug)
			ctx = debug.WithDebug(ctx, flags.Debug)

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl (env VIBER_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "jq expression to filter JSON output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.BoolVar(&flags.AllowPrivate, "allow-private", flags.AllowPrivate, "Allow private/localhost API hosts and webhook URLs (unsafe; env VIBER_ALLOW_PRIVATE)")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.IntVar(&flags.Retries, "retries", 0, "Retry network failures this many times with exponential backoff")
	pf.StringVar(&flags.Token, "token", "", "Auth token (overrides env, config file and profile)")
	pf.StringVar(&flags.Host, "host", "", "API origin (default "+viber.DefaultHost+")")
	pf.StringVar(&flags.Proxy, "proxy", "", "Forwarding proxy URL")
	pf.StringVar(&flags.Profile, "profile", "", "Keyring profile to use (env VIBER_PROFILE)")
	pf.StringVar(&flags.Config, "config", "", "Config file (default ~/.config/viber-cli/config.yaml)")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "allow-private", "ap")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "query", "jq")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newEndpointsCmd())
	root.AddCommand(newCallCmd())
	root.AddCommand(newAccountCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newBroadcastCmd())
	root.AddCommand(newUserCmd())
	root.AddCommand(newOnlineCmd())
	root.AddCommand(newWebhookCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range root.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		if unknown := extractFlag(msg); unknown != "" {
			seen := make(map[string]bool)
			var flagNames []string
			addFlags := func(fs *pflag.FlagSet) {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Hidden {
						return
					}
					if name := "--" + f.Name; !seen[name] {
						seen[name] = true
						flagNames = append(flagNames, name)
					}
				})
			}
			cmd := root
			if targetCmd != nil {
				cmd = targetCmd
			}
			addFlags(cmd.Flags())
			addFlags(cmd.InheritedFlags())
			helpCmd := strings.TrimSpace(cmd.CommandPath()) + " --help"
			if suggestion := suggestFlag(unknown, flagNames); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
			}
			return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
		}
	}

	return msg
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// shorthand errors read "unknown shorthand flag: 'a' in -a"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		rest := strings.TrimSpace(s[idx+1:])
		if end := strings.IndexByte(rest, ' '); end >= 0 {
			rest = rest[:end]
		}
		rest = strings.TrimRight(rest, ".,;:!?\"'")
		if strings.HasPrefix(rest, "-") && len(rest) > 1 {
			return rest
		}
		return ""
	}
	rest := s[idx:]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimRight(rest[:end], ".,;:!?\"'")
}
