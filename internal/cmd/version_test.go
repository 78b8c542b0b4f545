package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/viber/viber-cli/internal/update"
)

func TestVersionCommand(t *testing.T) {
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"version"}); err != nil {
			t.Errorf("version failed: %v", err)
		}
	})
	if !strings.Contains(output, "viber-cli version dev") {
		t.Errorf("expected 'viber-cli version dev' in output, got: %s", output)
	}
}

func TestVersionReportsUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v1.4.0","html_url":"https://github.com/viber/viber-cli/releases/v1.4.0"}`))
	}))
	defer server.Close()

	t.Setenv(update.EnvDisable, "")
	oldVersion, oldChecker := version, newUpdateChecker
	version = "1.2.0"
	newUpdateChecker = func() *update.Checker {
		return &update.Checker{URL: server.URL, HTTP: server.Client()}
	}
	defer func() { version, newUpdateChecker = oldVersion, oldChecker }()

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"version", "--json"}); err != nil {
			t.Fatalf("version failed: %v", err)
		}
	})
	var payload map[string]any
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["update_available"] != true || payload["latest_version"] != "1.4.0" {
		t.Errorf("unexpected payload: %v", payload)
	}
}
