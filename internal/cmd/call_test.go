package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallWithoutBodyIsGet(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/pa/get_account_info", okResponse(`"id":"pa:1","name":"Bot"`))
	setupTestEnv(t, handler)

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"call", "get_account_info"}))
	})

	assert.Contains(t, output, `"name": "Bot"`)
	reqs := handler.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testToken, reqs[0].Header.Get("X-Viber-Auth-Token"))
	assert.Empty(t, reqs[0].Body)
}

func TestCallAcceptsMethodNames(t *testing.T) {
	handler := newRouteHandler().On("POST", "/pa/get_online", okResponse(`"users":[]`))
	setupTestEnv(t, handler)

	for _, name := range []string{"get_online", "get.online", "GetOnline", "getOnline"} {
		t.Run(name, func(t *testing.T) {
			_ = captureStdout(t, func() {
				require.NoError(t, Execute(context.Background(), []string{"call", name, "-F", `ids=["a"]`}))
			})
		})
	}
	assert.Len(t, handler.Requests(), 4)
}

func TestCallPostsFields(t *testing.T) {
	handler := newRouteHandler().On("POST", "/pa/send_message", okResponse(`"message_token":5741311803571721087`))
	setupTestEnv(t, handler)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{
			"call", "send_message",
			"-f", "receiver=u1", "-f", "type=text", "-f", "text=hi",
			"-F", `sender={"name":"Bot"}`,
			"-o", "json", "--query", ".message_token",
		})
		require.NoError(t, err)
	})

	assert.Equal(t, "5741311803571721087", strings.TrimSpace(output))
	reqs := handler.Requests()
	require.Len(t, reqs, 1)
	body := bodyOf(t, reqs[0])
	assert.Equal(t, "u1", body["receiver"])
	assert.Equal(t, map[string]any{"name": "Bot"}, body["sender"])
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
}

func TestCallRemoteFailurePrintsReplyAndExits4(t *testing.T) {
	handler := newRouteHandler().
		On("POST", "/pa/get_user_details", jsonResponse(http.StatusOK, `{"status":5,"status_message":"receiverNotSubscribed"}`))
	setupTestEnv(t, handler)

	var err error
	output := captureStdout(t, func() {
		err = Execute(context.Background(), []string{"call", "get_user_details", "-d", `{"id":"u1"}`})
	})

	require.Error(t, err)
	assert.Equal(t, exitRemote, ExitCode(err))
	assert.Contains(t, output, "receiverNotSubscribed")
}

func TestCallUnknownEndpointSuggests(t *testing.T) {
	setupTestEnv(t, newRouteHandler())

	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"call", "send_mesage"})
	})

	require.Error(t, err)
	assert.Equal(t, exitUsage, ExitCode(err))
	assert.Contains(t, stderr, `did you mean "send_message"`)
}

func TestCallDryRunRedactsToken(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnv(t, handler)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{"call", "set_webhook", "-f", "url=https://example.com/hook", "--dry-run", "--json"})
		require.NoError(t, err)
	})

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	assert.Equal(t, "POST", payload["method"])
	assert.True(t, strings.HasSuffix(payload["url"].(string), "/pa/set_webhook"))
	headers := payload["headers"].(map[string]any)
	assert.Equal(t, "****6789", headers["X-Viber-Auth-Token"])
	assert.Empty(t, handler.Requests(), "dry run must not send")
}

func TestCallRejectsBodyAndInput(t *testing.T) {
	setupTestEnv(t, newRouteHandler())
	_ = captureStderr(t, func() {
		err := Execute(context.Background(), []string{"call", "get_online", "-d", "{}", "-i", "body.json"})
		require.Error(t, err)
	})
}

func TestBuildRequestBody(t *testing.T) {
	t.Run("nothing given", func(t *testing.T) {
		body, err := buildRequestBody(nil, nil, nil, "")
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("empty object is still a body", func(t *testing.T) {
		body, err := buildRequestBody(nil, nil, nil, "{}")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{}, body)
	})

	t.Run("fields override input", func(t *testing.T) {
		body, err := buildRequestBody([]string{"a=x"}, []string{"n=2"}, []byte(`{"a":"y","b":true}`), "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "x", "b": true, "n": float64(2)}, body)
	})

	t.Run("array body rejected", func(t *testing.T) {
		_, err := buildRequestBody(nil, nil, nil, "[1]")
		assert.Error(t, err)
	})

	t.Run("malformed field", func(t *testing.T) {
		_, err := buildRequestBody([]string{"novalue"}, nil, nil, "")
		assert.Error(t, err)
		_, err = buildRequestBody(nil, []string{"k={"}, nil, "")
		assert.Error(t, err)
	})
}
