package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/viber/viber-cli/internal/viber"
)

// envSettings is decoded under the upper-cased client name, so the viber
// client reads VIBER_AUTH_TOKEN, VIBER_TOKEN, VIBER_HOST and VIBER_PROXY_URL.
type envSettings struct {
	AuthToken string `envconfig:"AUTH_TOKEN"`
	Token     string `envconfig:"TOKEN"`
	Host      string `envconfig:"HOST"`
	ProxyURL  string `envconfig:"PROXY_URL"`
}

// EnvSource reads settings from environment variables prefixed by the
// client name.
type EnvSource struct{}

func (EnvSource) Lookup(name string) (viber.Settings, error) {
	var env envSettings
	if err := envconfig.Process(strings.ToUpper(name), &env); err != nil {
		return viber.Settings{}, fmt.Errorf("failed to read %s environment: %w", name, err)
	}
	s := viber.Settings{
		Token: strings.TrimSpace(env.AuthToken),
		Host:  strings.TrimSpace(env.Host),
	}
	if s.Token == "" {
		s.Token = strings.TrimSpace(env.Token)
	}
	if p := strings.TrimSpace(env.ProxyURL); p != "" {
		s.Proxy = &viber.ProxySettings{URL: p}
	}
	return s, nil
}
