package cmd

import (
	"fmt"

	"github.com/viber/viber-cli/internal/config"
	"github.com/viber/viber-cli/internal/validation"
	"github.com/viber/viber-cli/internal/viber"
)

// errNoToken is returned when no layer supplied an auth token.
var errNoToken = fmt.Errorf("no auth token configured: %w", config.ErrNotConfigured)

type clientFactory struct {
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		userAgent: fmt.Sprintf("viber-cli/%s", version),
	}
}

func flagSettings() viber.Settings {
	s := viber.Settings{Token: flags.Token, Host: flags.Host}
	if flags.Proxy != "" {
		s.Proxy = &viber.ProxySettings{URL: flags.Proxy}
	}
	return s
}

func settingsChain() config.Chain {
	return config.NewChain(flagSettings(), flags.Config, flags.Config != "", flags.Profile)
}

// client builds a configured client and validates the resolved host and
// proxy before any request leaves the machine.
func (f *clientFactory) client() (*viber.Client, error) {
	opts := []viber.Option{viber.WithUserAgent(f.userAgent)}
	if flags.Timeout > 0 {
		opts = append(opts, viber.WithTimeout(flags.Timeout))
	}
	client := viber.New("", "", opts...)
	if err := client.Configure(settingsChain()); err != nil {
		return nil, err
	}
	if client.Token() == "" {
		return nil, errNoToken
	}
	if err := validation.ValidateAPIHost(client.Host()); err != nil {
		return nil, &viber.ConfigurationError{Reason: fmt.Sprintf("invalid host %q: %v", client.Host(), err)}
	}
	if proxy := client.ProxyURL(); proxy != "" {
		if err := validation.ValidateProxyURL(proxy); err != nil {
			return nil, &viber.ConfigurationError{Reason: fmt.Sprintf("invalid proxy URL %q: %v", proxy, err)}
		}
	}
	return client, nil
}

// getClient is the entry point used by commands.
func getClient() (*viber.Client, error) {
	return newClientFactory().client()
}
