package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/viber/viber-cli/internal/viber"
)

// DefaultConfigPath returns ~/.config/viber-cli/config.yaml, or "" when the
// user config directory is unknown.
func DefaultConfigPath() string {
	dir, err := userConfigDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, serviceName, "config.yaml")
}

// FileSource reads settings from a config file section keyed by client name:
//
//	viber:
//	  token: ...
//	  host: https://chatapi.viber.com/
//	  proxy:
//	    url: http://127.0.0.1:3128
//
// A missing file yields empty settings unless Required is set.
type FileSource struct {
	Path     string
	Required bool
}

func (f FileSource) Lookup(name string) (viber.Settings, error) {
	if f.Path == "" {
		return viber.Settings{}, nil
	}
	if _, err := os.Stat(f.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !f.Required {
			return viber.Settings{}, nil
		}
		return viber.Settings{}, fmt.Errorf("config file %s: %w", f.Path, err)
	}

	v := viper.New()
	v.SetConfigFile(f.Path)
	if err := v.ReadInConfig(); err != nil {
		return viber.Settings{}, fmt.Errorf("failed to read config file %s: %w", f.Path, err)
	}

	var s viber.Settings
	if !v.IsSet(name) {
		return s, nil
	}
	if err := v.UnmarshalKey(name, &s); err != nil {
		return viber.Settings{}, fmt.Errorf("failed to decode %q section of %s: %w", name, f.Path, err)
	}
	return s, nil
}
