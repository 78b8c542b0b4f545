package viber

import (
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Endpoint describes a single remote operation under /pa/.
type Endpoint struct {
	// Path is the raw endpoint name, e.g. "send_message".
	Path string
	// Name holds the logical segments used for namespacing, e.g. ["send", "message"].
	Name []string
}

// Endpoint paths.
const (
	PathSetWebhook       = "set_webhook"
	PathSendMessage      = "send_message"
	PathBroadcastMessage = "broadcast_message"
	PathGetAccountInfo   = "get_account_info"
	PathGetUserDetails   = "get_user_details"
	PathGetOnline        = "get_online"
)

var endpoints = []Endpoint{
	{Path: PathSetWebhook, Name: []string{"set", "webhook"}},
	{Path: PathSendMessage, Name: []string{"send", "message"}},
	{Path: PathBroadcastMessage, Name: []string{"broadcast", "message"}},
	{Path: PathGetAccountInfo, Name: []string{"get", "account", "info"}},
	{Path: PathGetUserDetails, Name: []string{"get", "user", "details"}},
	{Path: PathGetOnline, Name: []string{"get", "online"}},
}

// dispatch maps every accepted spelling of an endpoint to its raw path.
var dispatch = buildDispatch(endpoints)

func buildDispatch(list []Endpoint) map[string]string {
	table := make(map[string]string, len(list)*4)
	for _, ep := range list {
		table[ep.Path] = ep.Path
		table[ep.DottedName()] = ep.Path
		table[ep.MethodName()] = ep.Path
		table[lowerFirst(ep.MethodName())] = ep.Path
	}
	return table
}

// Endpoints returns the known endpoint descriptors in declaration order.
func Endpoints() []Endpoint {
	out := make([]Endpoint, len(endpoints))
	for i, ep := range endpoints {
		out[i] = Endpoint{Path: ep.Path, Name: append([]string(nil), ep.Name...)}
	}
	return out
}

// DottedName returns the logical name joined with dots ("send.message").
func (e Endpoint) DottedName() string {
	return strings.Join(e.Name, ".")
}

// MethodName returns the exported Go method name ("SendMessage").
func (e Endpoint) MethodName() string {
	var b strings.Builder
	for _, seg := range e.Name {
		if seg == "" {
			continue
		}
		r := []rune(seg)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Lookup resolves a method name in any accepted spelling to its raw path.
// Accepted: "send_message", "send.message", "SendMessage", "sendMessage".
func Lookup(name string) (string, bool) {
	path, ok := dispatch[strings.TrimSpace(name)]
	return path, ok
}

type endpointSource []Endpoint

func (s endpointSource) String(i int) string { return s[i].Path }
func (s endpointSource) Len() int            { return len(s) }

// Suggest returns up to limit endpoint paths that fuzzily match name, best first.
func Suggest(name string, limit int) []string {
	query := strings.ToLower(strings.TrimSpace(name))
	query = strings.ReplaceAll(query, ".", "_")
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, endpointSource(endpoints))
	if len(matches) == 0 {
		// Fall back to segment overlap so "message_send" still finds send_message.
		for _, ep := range endpoints {
			for _, seg := range ep.Name {
				if strings.Contains(query, seg) {
					matches = append(matches, fuzzy.Match{Str: ep.Path})
					break
				}
			}
		}
	}
	var out []string
	for _, m := range matches {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
