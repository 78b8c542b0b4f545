package viber

import (
	"context"
	"net/http"
	"net/url"
)

// URLBuilder resolves endpoint names to request URLs.
//
// It lets callers that only render previews (dry runs, config display)
// depend on URL construction without the HTTP round trip.
type URLBuilder interface {
	BuildURL(endpoint, hostOverride string) (*url.URL, error)
	NewRequest(ctx context.Context, endpoint string, body any, opts ...CallOption) (*http.Request, error)
}

// Requester performs API calls by raw endpoint path.
//
// Command helpers that only forward a typed request take this instead of *Client.
type Requester interface {
	Call(ctx context.Context, endpoint string, body any, opts ...CallOption) (Result, error)
	Request(ctx context.Context, endpoint string, body any, opts ...CallOption) (Response, error)
}

// Compile-time interface implementation checks
var (
	_ Requester  = (*Client)(nil)
	_ URLBuilder = (*Client)(nil)
)
