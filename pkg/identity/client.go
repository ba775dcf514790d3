// pkg/identity/client.go
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"idadmin/pkg/logger"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ProjectResolver yields the project id the client operates on. Resolution
// may be remote (metadata servers, credential files), hence the context.
type ProjectResolver func(ctx context.Context) (string, error)

// Client translates admin operations into identity-backend wire calls and
// wire responses back into typed results. It holds no mutable state across
// calls except the lazily resolved path prefix.
type Client struct {
	baseURL  string
	tenantID string
	resolver ProjectResolver

	hc         HTTPDoer
	creds      CredentialSource
	log        logger.Sugared
	translator *Translator

	signKey    jwk.Key
	signIssuer string

	verifyIssuer string
	keys         KeyProvider

	timeout time.Duration

	mu            sync.Mutex
	cachedPrefix  string
	cachedProject string
}

type Option func(*Client)

// WithHTTPClient replaces the default transport. The SDK never retries; the
// doer owns timeout behavior.
func WithHTTPClient(hc HTTPDoer) Option {
	return func(c *Client) { c.hc = hc }
}

// WithCredential sets the bearer-credential source for outbound calls.
func WithCredential(src CredentialSource) Option {
	return func(c *Client) { c.creds = src }
}

// WithLogger attaches a sugared logger; the default discards everything.
func WithLogger(log logger.Sugared) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithTranslator replaces the backend error-code table.
func WithTranslator(t *Translator) Option {
	return func(c *Client) {
		if t != nil {
			c.translator = t
		}
	}
}

// WithTenant scopes every operation to a tenant of the project.
func WithTenant(tenantID string) Option {
	return func(c *Client) { c.tenantID = tenantID }
}

// WithTimeout sets the default transport's timeout. No effect when a custom
// HTTP client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithProjectResolver defers project-id resolution to first use. The result
// is memoized; concurrent first use may resolve more than once, which is safe
// because resolution is idempotent.
func WithProjectResolver(r ProjectResolver) Option {
	return func(c *Client) { c.resolver = r }
}

// New builds a client for the backend at baseURL. projectID may be empty when
// WithProjectResolver is supplied.
func New(baseURL, projectID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, argErrorf("baseURL must be a non-empty string")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger.Nop(),
		translator: NewTranslator(),
		timeout:    30 * time.Second,
	}
	if projectID != "" {
		pid := projectID
		c.resolver = func(context.Context) (string, error) { return pid, nil }
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		return nil, argErrorf("projectID or a project resolver is required")
	}
	if c.hc == nil {
		c.hc = defaultHTTPClient(c.timeout)
	}
	return c, nil
}

// prefix returns the memoized project/tenant base path, resolving it on first
// use. Resolution runs outside the lock so a slow resolver never serializes
// unrelated calls; racers may duplicate the work but the cache is only ever
// written whole.
func (c *Client) prefix(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.cachedPrefix
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	pid, err := c.resolver(ctx)
	if err != nil {
		return "", transportError(err)
	}
	if strings.TrimSpace(pid) == "" {
		return "", protocolErrorf("project resolver returned an empty project id")
	}
	p := "/v1/projects/" + pid
	if c.tenantID != "" {
		p += "/tenants/" + c.tenantID
	}

	c.mu.Lock()
	if c.cachedPrefix == "" {
		c.cachedPrefix = p
		c.cachedProject = pid
	}
	p = c.cachedPrefix
	c.mu.Unlock()
	return p, nil
}

// projectID returns the resolved project id; empty until the first prefix
// resolution succeeds.
func (c *Client) projectID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedProject
}

// TenantID returns the tenant the client is scoped to, empty for
// project-level clients.
func (c *Client) TenantID() string { return c.tenantID }
