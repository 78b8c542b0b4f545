// Package viber is a client for the Viber Public Account (bot) REST API.
//
// Every call is a single request/response round trip: the client builds
// {host}/pa/{endpoint}, attaches the X-Viber-Auth-Token header, optionally
// rewrites the request towards a forwarding proxy, and maps the
// status_message field of the JSON reply to a result. The client keeps no
// mutable state once configured and is safe for concurrent use.
package viber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/viber/viber-cli/internal/debug"
)

const (
	// ClientName is the key the client looks itself up by in a Source.
	ClientName = "viber"
	// DefaultHost is the public Viber chat API origin.
	DefaultHost = "https://chatapi.viber.com/"
	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second

	HeaderAuthToken  = "X-Viber-Auth-Token"
	HeaderTargetHost = "X-Target-Host"
	HeaderTarget     = "X-Target"

	statusOK = "ok"
)

// ProxySettings configures the forwarding proxy.
type ProxySettings struct {
	URL string `json:"url,omitempty" mapstructure:"url"`
}

// Settings is the configuration a Source returns for a client name.
type Settings struct {
	Token string         `json:"token,omitempty" mapstructure:"token"`
	Host  string         `json:"host,omitempty" mapstructure:"host"`
	Proxy *ProxySettings `json:"proxy,omitempty" mapstructure:"proxy"`
}

// ProxyURL returns the configured proxy URL or "".
func (s Settings) ProxyURL() string {
	if s.Proxy == nil {
		return ""
	}
	return strings.TrimSpace(s.Proxy.URL)
}

// Source looks up settings by client name.
type Source interface {
	Lookup(name string) (Settings, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string) (Settings, error)

func (f SourceFunc) Lookup(name string) (Settings, error) { return f(name) }

// Client is the Viber API client.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	token    string
	host     string
	proxyURL string
}

// Option configures a Client in New.
type Option func(*Client)

// WithProxy routes every request through the forwarding proxy at proxyURL.
func WithProxy(proxyURL string) Option {
	return func(c *Client) { c.proxyURL = strings.TrimSpace(proxyURL) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout. The client is copied first so a
// caller-supplied *http.Client is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.HTTP
			hc.Timeout = d
			c.HTTP = &hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// New creates a client with explicit token and host. Either may be empty;
// Configure fills the gaps from a Source.
func New(token, host string, opts ...Option) *Client {
	c := &Client{
		HTTP:  &http.Client{Timeout: DefaultTimeout},
		token: strings.TrimSpace(token),
		host:  strings.TrimSpace(host),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure is the startup hook. It reads the settings stored under
// ClientName and keeps explicit constructor values over configured ones.
// The host falls back to DefaultHost. Configure must run before the client
// is shared between goroutines.
func (c *Client) Configure(src Source) error {
	var s Settings
	if src != nil {
		var err error
		s, err = src.Lookup(ClientName)
		if err != nil {
			return fmt.Errorf("failed to load %s settings: %w", ClientName, err)
		}
	}
	if c.token == "" {
		c.token = strings.TrimSpace(s.Token)
	}
	if c.host == "" {
		c.host = strings.TrimSpace(s.Host)
	}
	if c.host == "" {
		c.host = DefaultHost
	}
	if c.proxyURL == "" {
		c.proxyURL = s.ProxyURL()
	}
	return nil
}

// Token returns the instance token.
func (c *Client) Token() string { return c.token }

// Host returns the instance host, which may be empty before Configure.
func (c *Client) Host() string { return c.host }

// ProxyURL returns the configured proxy URL or "".
func (c *Client) ProxyURL() string { return c.proxyURL }

// CallOption overrides instance settings for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	token string
	host  string
}

// WithToken overrides the auth token for one call.
func WithToken(token string) CallOption {
	return func(o *callOptions) { o.token = token }
}

// WithHost overrides the API host for one call.
func WithHost(host string) CallOption {
	return func(o *callOptions) { o.host = host }
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// BuildURL returns {host}/pa/{endpoint}. hostOverride wins over the
// instance host; with neither, it fails with *ConfigurationError.
func (c *Client) BuildURL(endpoint, hostOverride string) (*url.URL, error) {
	host := strings.TrimSpace(hostOverride)
	if host == "" {
		host = c.host
	}
	if host == "" {
		return nil, &ConfigurationError{Reason: "host is not defined"}
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid host %q: %v", host, err)}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("host %q must be an absolute URL", host)}
	}
	base.RawQuery = ""
	base.Fragment = ""
	if base.Path == "" {
		base.Path = "/"
		base.RawPath = ""
	}
	return base.JoinPath("pa", endpoint), nil
}

// encodeBody serializes body. Strings and raw bytes pass through unchanged;
// nil (typed or not) and empty input mean "no body".
func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	default:
		switch rv := reflect.ValueOf(v); rv.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
			if rv.IsNil() {
				return nil, nil
			}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, nil
	}
}

// NewRequest builds the outbound HTTP request for endpoint without sending it.
func (c *Client) NewRequest(ctx context.Context, endpoint string, body any, opts ...CallOption) (*http.Request, error) {
	o := applyCallOptions(opts)

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	target, err := c.BuildURL(endpoint, o.host)
	if err != nil {
		return nil, err
	}

	method := http.MethodGet
	var reader io.Reader
	if payload != nil {
		method = http.MethodPost
		reader = bytes.NewReader(payload)
	}

	dest := target.String()
	if c.proxyURL != "" {
		proxy, err := url.Parse(c.proxyURL)
		if err != nil || proxy.Scheme == "" || proxy.Host == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid proxy URL %q", c.proxyURL)}
		}
		dest = proxy.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, dest, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token := o.token
	if token == "" {
		token = c.token
	}
	req.Header.Set(HeaderAuthToken, token)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Length", strconv.Itoa(len(payload)))
		req.ContentLength = int64(len(payload))
	}
	if c.proxyURL != "" {
		req.Header.Set(HeaderTargetHost, target.Host)
		req.Header.Set(HeaderTarget, target.Scheme+"://"+target.Host+target.EscapedPath())
	}
	return req, nil
}

// Result is the decoded reply of one call. Failure is set when the API
// answered but its status was not "ok".
type Result struct {
	Response Response
	Failure  *RemoteAPIError
}

// OK reports whether the API accepted the call.
func (r Result) OK() bool { return r.Failure == nil }

// Call performs one round trip. The returned error is reserved for
// configuration and transport failures; an API-level rejection is reported
// in Result.Failure.
func (c *Client) Call(ctx context.Context, endpoint string, body any, opts ...CallOption) (Result, error) {
	start := time.Now()

	req, err := c.NewRequest(ctx, endpoint, body, opts...)
	if err != nil {
		if IsConfigurationError(err) {
			observe(endpoint, outcomeConfigError, start)
		}
		return Result{}, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "endpoint", endpoint, "method", req.Method, "url", req.URL.String(), "error", err)
		}
		observe(endpoint, outcomeTransportError, start)
		return Result{}, &TransportError{Endpoint: endpoint, Err: err}
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		observe(endpoint, outcomeTransportError, start)
		return Result{}, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "endpoint", endpoint, "method", req.Method, "url", req.URL.String(),
			"status", resp.StatusCode, "duration", time.Since(start))
	}

	parsed, err := decodeResponse(respBody)
	if err != nil {
		observe(endpoint, outcomeTransportError, start)
		return Result{}, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected API response format (JSON decode failed): %w", err),
		}
	}

	if msg, ok := parsed.statusMessage(); !ok || msg != statusOK {
		if !ok {
			msg = "response has no status_message"
		}
		observe(endpoint, outcomeRemoteError, start)
		return Result{
			Response: parsed,
			Failure:  &RemoteAPIError{Endpoint: endpoint, Status: parsed.Status(), Message: msg},
		}, nil
	}

	observe(endpoint, outcomeOK, start)
	return Result{Response: parsed}, nil
}

// Request performs one round trip and returns the parsed body on success.
// It fails with *ConfigurationError, *TransportError or *RemoteAPIError.
func (c *Client) Request(ctx context.Context, endpoint string, body any, opts ...CallOption) (Response, error) {
	res, err := c.Call(ctx, endpoint, body, opts...)
	if err != nil {
		return nil, err
	}
	if res.Failure != nil {
		return nil, res.Failure
	}
	return res.Response, nil
}

// Invoke dispatches by method name through the static endpoint table.
func (c *Client) Invoke(ctx context.Context, name string, body any, opts ...CallOption) (Response, error) {
	path, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	return c.Request(ctx, path, body, opts...)
}

// SetWebhook calls set_webhook.
func (c *Client) SetWebhook(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathSetWebhook, body, opts...)
}

// SendMessage calls send_message.
func (c *Client) SendMessage(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathSendMessage, body, opts...)
}

// BroadcastMessage calls broadcast_message.
func (c *Client) BroadcastMessage(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathBroadcastMessage, body, opts...)
}

// GetAccountInfo calls get_account_info.
func (c *Client) GetAccountInfo(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathGetAccountInfo, body, opts...)
}

// GetUserDetails calls get_user_details.
func (c *Client) GetUserDetails(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathGetUserDetails, body, opts...)
}

// GetOnline calls get_online.
func (c *Client) GetOnline(ctx context.Context, body any, opts ...CallOption) (Response, error) {
	return c.Request(ctx, PathGetOnline, body, opts...)
}
