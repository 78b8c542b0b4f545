package viber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoints_Table(t *testing.T) {
	eps := Endpoints()
	require.Len(t, eps, 6)

	seen := make(map[string]bool)
	for _, ep := range eps {
		assert.False(t, seen[ep.Path], "duplicate path %s", ep.Path)
		seen[ep.Path] = true
		assert.NotEmpty(t, ep.Name)
	}

	eps[0].Name[0] = "mutated"
	assert.Equal(t, "set", Endpoints()[0].Name[0], "Endpoints returns a copy")
}

func TestEndpoint_Names(t *testing.T) {
	ep := Endpoint{Path: PathGetAccountInfo, Name: []string{"get", "account", "info"}}
	assert.Equal(t, "get.account.info", ep.DottedName())
	assert.Equal(t, "GetAccountInfo", ep.MethodName())
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"send_message", PathSendMessage, true},
		{"send.message", PathSendMessage, true},
		{"SendMessage", PathSendMessage, true},
		{"sendMessage", PathSendMessage, true},
		{"  get.online ", PathGetOnline, true},
		{"get.account.info", PathGetAccountInfo, true},
		{"getAccountInfo", PathGetAccountInfo, true},
		{"send", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggest(t *testing.T) {
	got := Suggest("sendmsg", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, PathSendMessage, got[0])

	got = Suggest("get.online", 1)
	assert.Equal(t, []string{PathGetOnline}, got)

	got = Suggest("message_send", 5)
	assert.Contains(t, got, PathSendMessage)

	assert.Empty(t, Suggest("", 3))
	assert.Empty(t, Suggest("zzzz", 3))
}
