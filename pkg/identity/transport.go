// pkg/identity/transport.go
package identity

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPDoer is the transport collaborator. The SDK issues exactly one Do per
// operation; timeouts, retries, TLS and pooling are the implementation's
// concern, never this package's.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

func defaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// CredentialSource yields the bearer credential attached to outbound calls.
// Minting and refresh live outside this module.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticCredential is a fixed bearer token, enough for dev and for callers
// that refresh out of band.
type StaticCredential string

func (s StaticCredential) AccessToken(context.Context) (string, error) {
	return string(s), nil
}
