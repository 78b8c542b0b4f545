package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/viber/viber-cli/internal/outfmt"
)

func parseBoolEnv(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// aliasBridgeValue forwards Set to the canonical flag and marks it changed,
// so Changed() on the canonical name also sees the alias.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// flagAlias registers a hidden long-form alias for an existing flag.
func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	a.Annotations = map[string][]string{"alias-of": {name}}
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or one of its aliases
// was set explicitly.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) || cmd.InheritedFlags().Changed(name) {
		return true
	}
	changed := false
	check := func(f *pflag.Flag) {
		if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name && f.Changed {
			changed = true
		}
	}
	cmd.Flags().VisitAll(check)
	cmd.InheritedFlags().VisitAll(check)
	return changed
}

// errAlreadyHandled marks an error whose message was already printed.
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

// Unwrap exposes both the sentinel and the cause, so errors.As still finds
// typed client errors behind a handled error.
func (e *handledError) Unwrap() []error {
	return []error{errAlreadyHandled, e.err}
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// RunE wraps a command body: failures are rendered once (JSON on stdout in
// JSON mode, suggestions on stderr otherwise) and returned as handled.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil || errors.Is(err, errAlreadyHandled) {
			return err
		}
		if outfmt.IsJSON(cmd.Context()) {
			_ = outfmt.WriteJSON(cmd.OutOrStdout(), errorPayload(err), outfmt.IsCompact(cmd.Context()))
		} else {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
		}
		return &handledError{err: err, exitCode: ExitCode(err)}
	}
}

// splitList accepts repeated and comma-separated values and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
