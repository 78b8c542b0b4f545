package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userHandler() *routeHandler {
	return newRouteHandler().On("POST", "/pa/get_user_details", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID string `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ID == "gone" {
			jsonResponse(http.StatusOK, `{"status":6,"status_message":"receiverNotSubscribed"}`)(w, r)
			return
		}
		okResponse(`"user":{"id":"`+req.ID+`","name":"Name `+req.ID+`","country":"UA","api_version":8}`)(w, r)
	})
}

func TestUserSingle(t *testing.T) {
	setupTestEnv(t, userHandler())

	output := captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"user", "u1"}))
	})
	assert.Contains(t, output, "Name u1")
	assert.Contains(t, output, "UA")
}

func TestUserMany(t *testing.T) {
	setupTestEnv(t, userHandler())

	var err error
	output := captureStdout(t, func() {
		err = Execute(context.Background(), []string{"user", "u1", "gone", "u2", "-o", "json"})
	})
	require.Error(t, err)
	assert.Equal(t, exitRemote, ExitCode(err))

	var results []BulkResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "u1", results[0].ID)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Name u2", results[2].Data.(map[string]any)["name"])
}
