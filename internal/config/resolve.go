package config

import (
	"errors"
	"strings"

	"github.com/viber/viber-cli/internal/viber"
)

// Origins of a resolved setting, reported by `vb config show`.
const (
	OriginFlag    = "flag"
	OriginEnv     = "env"
	OriginFile    = "file"
	OriginProfile = "profile"
	OriginDefault = "default"
)

// ProfileSource reads a keyring profile. An empty Name means the active
// profile; keyring failures are then ignored so that flag or environment
// credentials keep working on machines without a usable keyring.
type ProfileSource struct {
	Name string
}

func (p ProfileSource) Lookup(string) (viber.Settings, error) {
	name := p.Name
	explicit := name != ""
	if !explicit {
		var err error
		if name, err = ActiveProfile(); err != nil {
			return viber.Settings{}, nil
		}
	}
	prof, err := LoadProfile(name)
	if err != nil {
		if !explicit || errors.Is(err, ErrNotConfigured) && name == defaultProfile {
			return viber.Settings{}, nil
		}
		return viber.Settings{}, err
	}
	return prof.Settings(), nil
}

// Layer is one named source in a Chain.
type Layer struct {
	Origin string
	Source viber.Source
}

// Chain merges sources field by field; earlier layers win.
type Chain []Layer

// Resolved is the merged settings with the origin of each field.
type Resolved struct {
	viber.Settings
	TokenOrigin string
	HostOrigin  string
	ProxyOrigin string
}

func (c Chain) Lookup(name string) (viber.Settings, error) {
	r, err := c.Resolve(name)
	if err != nil {
		return viber.Settings{}, err
	}
	return r.Settings, nil
}

// Resolve merges all layers. The host falls back to viber.DefaultHost.
func (c Chain) Resolve(name string) (Resolved, error) {
	var r Resolved
	for _, layer := range c {
		if layer.Source == nil {
			continue
		}
		s, err := layer.Source.Lookup(name)
		if err != nil {
			return Resolved{}, err
		}
		if r.Token == "" && strings.TrimSpace(s.Token) != "" {
			r.Token = strings.TrimSpace(s.Token)
			r.TokenOrigin = layer.Origin
		}
		if r.Host == "" && strings.TrimSpace(s.Host) != "" {
			r.Host = strings.TrimSpace(s.Host)
			r.HostOrigin = layer.Origin
		}
		if r.Proxy == nil && s.ProxyURL() != "" {
			r.Proxy = &viber.ProxySettings{URL: s.ProxyURL()}
			r.ProxyOrigin = layer.Origin
		}
	}
	if r.Host == "" {
		r.Host = viber.DefaultHost
		r.HostOrigin = OriginDefault
	}
	return r, nil
}

// Static is a fixed set of settings, used for command-line flags.
type Static viber.Settings

func (s Static) Lookup(string) (viber.Settings, error) { return viber.Settings(s), nil }

// NewChain builds the standard precedence: flags, environment, config
// file, keyring profile.
func NewChain(flags viber.Settings, configPath string, configRequired bool, profile string) Chain {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	return Chain{
		{Origin: OriginFlag, Source: Static(flags)},
		{Origin: OriginEnv, Source: EnvSource{}},
		{Origin: OriginFile, Source: FileSource{Path: configPath, Required: configRequired}},
		{Origin: OriginProfile, Source: ProfileSource{Name: profile}},
	}
}
