package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viber/viber-cli/internal/config"
)

func TestAuthLoginVerifiesAndSaves(t *testing.T) {
	useFreshKeyring(t)
	handler := newRouteHandler().On("POST", "/pa/get_account_info", okResponse(`"name":"My Bot"`))
	env := setupTestEnv(t, handler)
	t.Setenv("VIBER_AUTH_TOKEN", "")
	t.Setenv("VIBER_HOST", "")

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"auth", "login", "--token", "saved-token-abcdef", "--host", env.server.URL, "--profile", "work"})
		require.NoError(t, err)
	})
	assert.Contains(t, output, "Account: My Bot")
	assert.Equal(t, "saved-token-abcdef", handler.Requests()[0].Header.Get("X-Viber-Auth-Token"))

	p, err := config.LoadProfile("work")
	require.NoError(t, err)
	assert.Equal(t, "saved-token-abcdef", p.Token)
	assert.Equal(t, env.server.URL, p.Host)

	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "work", current)

	// the saved profile now drives plain commands
	status := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status", "--json"}))
	})
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(status), &payload))
	assert.Equal(t, true, payload["authenticated"])
	assert.Equal(t, "profile", payload["source"])
	assert.Equal(t, "work", payload["profile"])
	assert.Equal(t, "****cdef", payload["token"])
}

func TestAuthLoginRejectedTokenIsNotSaved(t *testing.T) {
	useFreshKeyring(t)
	setupTestEnv(t, newRouteHandler().On("POST", "/pa/get_account_info",
		jsonResponse(200, `{"status":2,"status_message":"invalidAuthToken"}`)))

	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login", "--token", "bad"})
	})
	require.Error(t, err)
	assert.Equal(t, exitAuth, ExitCode(err))

	_, err = config.LoadProfile("default")
	assert.ErrorIs(t, err, config.ErrNotConfigured)
}

func TestAuthLoginEnvFile(t *testing.T) {
	useFreshKeyring(t)
	setupTestEnv(t, newRouteHandler())

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("VIBER_AUTH_TOKEN=from-env-file-1234\nVIBER_PROXY_URL=https://proxy.example.com/fwd\n"), 0o600))

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "login", "--env-file", path, "--no-verify"}))
	})

	p, err := config.LoadProfile("default")
	require.NoError(t, err)
	assert.Equal(t, "from-env-file-1234", p.Token)
	assert.Equal(t, "https://proxy.example.com/fwd", p.ProxyURL)
}

func TestAuthLoginRequiresToken(t *testing.T) {
	useFreshKeyring(t)
	var err error
	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "login"})
	})
	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
}

func TestAuthLogoutAndProfiles(t *testing.T) {
	useFreshKeyring(t)
	require.NoError(t, config.SaveProfile("a", config.Profile{Token: "token-a"}))
	require.NoError(t, config.SaveProfile("b", config.Profile{Token: "token-b"}))

	list := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "profiles"}))
	})
	assert.Contains(t, list, "a")
	assert.Regexp(t, `b\s+\*`, list)

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "use", "a"}))
	})
	current, err := config.CurrentProfile()
	require.NoError(t, err)
	assert.Equal(t, "a", current)

	out := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "logout"}))
	})
	assert.Contains(t, out, "Removed credentials for profile a")
	_, err = config.LoadProfile("a")
	assert.ErrorIs(t, err, config.ErrNotConfigured)

	_ = captureStderr(t, func() {
		err = Execute(context.Background(), []string{"auth", "use", "missing"})
	})
	assert.Equal(t, exitConfig, ExitCode(err))
}

func TestAuthStatusNotAuthenticated(t *testing.T) {
	useFreshKeyring(t)
	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"auth", "status"}))
	})
	assert.True(t, strings.HasPrefix(output, "Not authenticated."))
}
