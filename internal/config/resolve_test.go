package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viber/viber-cli/internal/viber"
)

func clearViberEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"VIBER_AUTH_TOKEN", "VIBER_TOKEN", "VIBER_HOST", "VIBER_PROXY_URL", envProfile} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEnvSource(t *testing.T) {
	clearViberEnv(t)

	s, err := EnvSource{}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, viber.Settings{}, s)

	t.Setenv("VIBER_TOKEN", "legacy")
	t.Setenv("VIBER_HOST", "https://example.com/")
	t.Setenv("VIBER_PROXY_URL", "http://127.0.0.1:3128")
	s, err = EnvSource{}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, "legacy", s.Token)
	assert.Equal(t, "https://example.com/", s.Host)
	assert.Equal(t, "http://127.0.0.1:3128", s.ProxyURL())

	t.Setenv("VIBER_AUTH_TOKEN", "primary")
	s, err = EnvSource{}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, "primary", s.Token)
}

func TestEnvSource_PrefixFollowsClientName(t *testing.T) {
	clearViberEnv(t)
	t.Setenv("OTHER_AUTH_TOKEN", "x")

	s, err := EnvSource{}.Lookup("other")
	require.NoError(t, err)
	assert.Equal(t, "x", s.Token)

	s, err = EnvSource{}.Lookup("viber")
	require.NoError(t, err)
	assert.Empty(t, s.Token)
}

func TestFileSource(t *testing.T) {
	path := writeConfig(t, `
viber:
  token: file-token
  host: https://file.example.com/
  proxy:
    url: http://proxy.local:8080
other:
  token: nope
`)
	s, err := FileSource{Path: path}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, "file-token", s.Token)
	assert.Equal(t, "https://file.example.com/", s.Host)
	assert.Equal(t, "http://proxy.local:8080", s.ProxyURL())
}

func TestFileSource_MissingSection(t *testing.T) {
	path := writeConfig(t, "other:\n  token: x\n")
	s, err := FileSource{Path: path}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, viber.Settings{}, s)
}

func TestFileSource_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	s, err := FileSource{Path: missing}.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, viber.Settings{}, s)

	_, err = FileSource{Path: missing, Required: true}.Lookup("viber")
	require.Error(t, err)
}

func TestFileSource_Malformed(t *testing.T) {
	path := writeConfig(t, "viber: [unterminated\n")
	_, err := FileSource{Path: path}.Lookup("viber")
	require.Error(t, err)
}

func TestChain_Precedence(t *testing.T) {
	clearViberEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	require.NoError(t, SaveProfile("default", Profile{
		Token:    "profile-token",
		Host:     "https://profile.example.com/",
		ProxyURL: "http://profile-proxy:1",
	}))

	path := writeConfig(t, "viber:\n  host: https://file.example.com/\n")
	t.Setenv("VIBER_AUTH_TOKEN", "env-token")

	chain := NewChain(viber.Settings{Proxy: &viber.ProxySettings{URL: "http://flag-proxy:2"}}, path, true, "")
	r, err := chain.Resolve("viber")
	require.NoError(t, err)

	assert.Equal(t, "env-token", r.Token)
	assert.Equal(t, OriginEnv, r.TokenOrigin)
	assert.Equal(t, "https://file.example.com/", r.Host)
	assert.Equal(t, OriginFile, r.HostOrigin)
	assert.Equal(t, "http://flag-proxy:2", r.ProxyURL())
	assert.Equal(t, OriginFlag, r.ProxyOrigin)
}

func TestChain_DefaultHost(t *testing.T) {
	clearViberEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	chain := NewChain(viber.Settings{Token: "t"}, filepath.Join(t.TempDir(), "none.yaml"), false, "")
	r, err := chain.Resolve("viber")
	require.NoError(t, err)
	assert.Equal(t, viber.DefaultHost, r.Host)
	assert.Equal(t, OriginDefault, r.HostOrigin)
	assert.Nil(t, r.Proxy)
}

func TestChain_ImplicitProfileToleratesKeyringFailure(t *testing.T) {
	clearViberEnv(t)
	withFailingKeyring(t, errors.New("no keyring"))

	chain := NewChain(viber.Settings{Token: "flag"}, filepath.Join(t.TempDir(), "none.yaml"), false, "")
	s, err := chain.Lookup("viber")
	require.NoError(t, err)
	assert.Equal(t, "flag", s.Token)
}

func TestChain_ExplicitProfileMissing(t *testing.T) {
	clearViberEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	chain := NewChain(viber.Settings{}, filepath.Join(t.TempDir(), "none.yaml"), false, "staging")
	_, err := chain.Lookup("viber")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestChain_ErrorStops(t *testing.T) {
	boom := errors.New("boom")
	chain := Chain{
		{Origin: OriginFlag, Source: viber.SourceFunc(func(string) (viber.Settings, error) { return viber.Settings{}, boom })},
	}
	_, err := chain.Lookup("viber")
	require.ErrorIs(t, err, boom)
}

func TestChain_ConfiguresClient(t *testing.T) {
	clearViberEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	path := writeConfig(t, "viber:\n  token: from-file\n")

	c := viber.New("", "")
	require.NoError(t, c.Configure(NewChain(viber.Settings{}, path, true, "")))
	assert.Equal(t, "from-file", c.Token())
	assert.Equal(t, viber.DefaultHost, c.Host())
}
