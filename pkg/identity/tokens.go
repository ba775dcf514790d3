// pkg/identity/tokens.go
package identity

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Token is a decoded, verified session artifact.
type Token struct {
	UID      string
	Issuer   string
	Audience string
	TenantID string
	IssuedAt int64 // unix seconds
	Expires  int64
	AuthTime int64
	Claims   map[string]any
}

// KeyProvider yields the key set used to verify session artifacts. Key
// fetching and caching is the provider's concern.
type KeyProvider interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// jwksProvider fetches a JWKS URL and caches the set for a TTL. Concurrent
// refreshes may duplicate the fetch; the cache is only written whole.
type jwksProvider struct {
	url string
	ttl time.Duration

	mu      sync.RWMutex
	set     jwk.Set
	expires time.Time
}

func (p *jwksProvider) Keys(ctx context.Context) (jwk.Set, error) {
	p.mu.RLock()
	if p.set != nil && time.Now().Before(p.expires) {
		set := p.set
		p.mu.RUnlock()
		return set, nil
	}
	p.mu.RUnlock()

	set, err := jwk.Fetch(ctx, p.url)
	if err != nil {
		return nil, transportError(err)
	}
	p.mu.Lock()
	p.set = set
	p.expires = time.Now().Add(p.ttl)
	p.mu.Unlock()
	return set, nil
}

// StaticKeys is a fixed key set, for tests and pinned deployments.
type StaticKeys struct {
	Set jwk.Set
}

func (s StaticKeys) Keys(context.Context) (jwk.Set, error) { return s.Set, nil }

// WithJWKS verifies session artifacts against the key set published at url,
// cached for six hours.
func WithJWKS(url string) Option {
	return func(c *Client) { c.keys = &jwksProvider{url: url, ttl: 6 * time.Hour} }
}

// WithKeyProvider injects a verification key source directly.
func WithKeyProvider(kp KeyProvider) Option {
	return func(c *Client) { c.keys = kp }
}

// WithIssuer overrides the issuer accepted during verification. The default
// is baseURL + "/v1/projects/" + projectID.
func WithIssuer(iss string) Option {
	return func(c *Client) { c.verifyIssuer = iss }
}

// WithSigningKey enables custom-token minting. issuer identifies the signing
// principal (iss and sub of minted tokens); key must carry an RSA private
// key.
func WithSigningKey(issuer string, key jwk.Key) Option {
	return func(c *Client) {
		c.signIssuer = issuer
		c.signKey = key
	}
}

func tokenError(code, msg string) *Error {
	return &Error{Kind: KindToken, Code: code, Message: msg}
}

func (c *Client) issuer(ctx context.Context) (string, error) {
	// Resolve the project first so issuer and audience agree even when a
	// custom issuer is configured.
	if _, err := c.prefix(ctx); err != nil {
		return "", err
	}
	if c.verifyIssuer != "" {
		return c.verifyIssuer, nil
	}
	return c.baseURL + "/v1/projects/" + c.projectID(), nil
}

// VerifyToken checks the artifact's signature and standard claims, then the
// tenant claim when the client is tenant-scoped. Tenant mismatch is checked
// before anything touches the network and rejects hard; revocation is opt-in
// via VerifyTokenAndCheckRevoked because it costs an account lookup.
func (c *Client) VerifyToken(ctx context.Context, raw string) (*Token, error) {
	if raw == "" {
		return nil, argErrorf("token must be a non-empty string")
	}
	if c.keys == nil {
		return nil, argErrorf("no verification key source configured")
	}
	iss, err := c.issuer(ctx)
	if err != nil {
		return nil, err
	}
	set, err := c.keys.Keys(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := jwt.Parse([]byte(raw),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(iss),
		jwt.WithAudience(c.projectID()),
	)
	if err != nil {
		return nil, tokenError(CodeInvalidToken, "token rejected: "+err.Error())
	}
	sub := parsed.Subject()
	if sub == "" || len(sub) > maxUIDLength {
		return nil, tokenError(CodeInvalidToken, "token subject is not a valid uid")
	}

	tok := &Token{
		UID:      sub,
		Issuer:   parsed.Issuer(),
		IssuedAt: parsed.IssuedAt().Unix(),
		Expires:  parsed.Expiration().Unix(),
		Claims:   parsed.PrivateClaims(),
	}
	if aud := parsed.Audience(); len(aud) > 0 {
		tok.Audience = aud[0]
	}
	if v, ok := parsed.Get("auth_time"); ok {
		if f, ok := v.(float64); ok {
			tok.AuthTime = int64(f)
		}
	}
	if v, ok := parsed.Get("tenant"); ok {
		tok.TenantID, _ = v.(string)
	}
	if c.tenantID != "" && tok.TenantID != c.tenantID {
		return nil, tokenError(CodeTenantIDMismatch, "token tenant claim does not match the expected tenant")
	}
	return tok, nil
}

// revokedAt reports whether a token issued at iatSeconds predates the
// recorded cutoff. The cutoff rounds up to whole seconds; an artifact issued
// exactly at the rounded cutoff is still valid.
func revokedAt(iatSeconds, cutoffMillis int64) bool {
	if cutoffMillis <= 0 {
		return false
	}
	cutoffSeconds := (cutoffMillis + 999) / 1000
	return iatSeconds < cutoffSeconds
}

// Revoked reports whether tok predates the revocation cutoff (millis). For
// callers that fetch and cache cutoffs themselves; VerifyTokenAndCheckRevoked
// bundles the lookup.
func Revoked(tok *Token, cutoffMillis int64) bool {
	return revokedAt(tok.IssuedAt, cutoffMillis)
}

// VerifyTokenAndCheckRevoked verifies the artifact and additionally looks up
// the account to apply the revocation cutoff and disabled flag.
func (c *Client) VerifyTokenAndCheckRevoked(ctx context.Context, raw string) (*Token, error) {
	tok, err := c.VerifyToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	user, err := c.GetUser(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, tokenError(CodeUserDisabled, "the user account has been disabled")
	}
	if revokedAt(tok.IssuedAt, user.TokensValidAfterMillis) {
		return nil, tokenError(CodeIDTokenRevoked, "the token was revoked by a newer cutoff")
	}
	return tok, nil
}

// Session cookie lifetime bounds, backend-enforced but validated client-side.
const (
	minSessionCookieAge = 5 * time.Minute
	maxSessionCookieAge = 14 * 24 * time.Hour
)

// CreateSessionCookie exchanges a verified ID token for a session cookie
// valid for expiresIn (whole seconds on the wire).
func (c *Client) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if idToken == "" {
		return "", argErrorf("idToken must be a non-empty string")
	}
	if expiresIn < minSessionCookieAge || expiresIn > maxSessionCookieAge {
		return "", argErrorf("session cookie duration must be between %v and %v, got %v",
			minSessionCookieAge, maxSessionCookieAge, expiresIn)
	}
	resp, err := c.call(ctx, opSessionCookie, nil, map[string]any{
		"idToken":       idToken,
		"validDuration": int64(expiresIn.Seconds()),
	})
	if err != nil {
		return "", err
	}
	return strField(resp, "sessionCookie"), nil
}

const customTokenTTL = time.Hour

// CustomToken mints a signed token asserting uid plus optional developer
// claims, exchangeable for a session at the backend. Requires WithSigningKey.
func (c *Client) CustomToken(ctx context.Context, uid string, devClaims map[string]any) (string, error) {
	if err := validateUID(uid); err != nil {
		return "", err
	}
	if len(devClaims) > 0 {
		if err := validateCustomClaims(devClaims); err != nil {
			return "", err
		}
	}
	if c.signKey == nil {
		return "", argErrorf("no signing key configured for custom tokens")
	}
	now := time.Now()
	b := jwt.NewBuilder().
		Issuer(c.signIssuer).
		Subject(c.signIssuer).
		Audience([]string{c.baseURL + "/v1/token"}).
		IssuedAt(now).
		Expiration(now.Add(customTokenTTL)).
		Claim("uid", uid)
	if len(devClaims) > 0 {
		b = b.Claim("claims", devClaims)
	}
	if c.tenantID != "" {
		b = b.Claim("tenant", c.tenantID)
	}
	tok, err := b.Build()
	if err != nil {
		return "", protocolErrorf("building custom token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, c.signKey))
	if err != nil {
		return "", protocolErrorf("signing custom token: %v", err)
	}
	return string(signed), nil
}

// ActionCodeSettings controls where an email action link lands.
type ActionCodeSettings struct {
	URL               string
	HandleCodeInApp   bool
	DynamicLinkDomain string
}

// PasswordResetLink generates an email action link for resetting the
// account's password.
func (c *Client) PasswordResetLink(ctx context.Context, email string, settings *ActionCodeSettings) (string, error) {
	return c.actionLink(ctx, "PASSWORD_RESET", email, settings, false)
}

// EmailVerificationLink generates an email action link for verifying the
// account's address.
func (c *Client) EmailVerificationLink(ctx context.Context, email string, settings *ActionCodeSettings) (string, error) {
	return c.actionLink(ctx, "VERIFY_EMAIL", email, settings, false)
}

// EmailSignInLink generates a sign-in-with-email link; settings with a
// continue URL are mandatory for this type.
func (c *Client) EmailSignInLink(ctx context.Context, email string, settings *ActionCodeSettings) (string, error) {
	return c.actionLink(ctx, "EMAIL_SIGNIN", email, settings, true)
}

func (c *Client) actionLink(ctx context.Context, requestType, email string, settings *ActionCodeSettings, settingsRequired bool) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if settingsRequired && (settings == nil || settings.URL == "") {
		return "", argErrorf("%s links require action code settings with a continue URL", requestType)
	}
	payload := map[string]any{
		"requestType":   requestType,
		"email":         email,
		"returnOobLink": true,
	}
	if settings != nil {
		if settings.URL != "" {
			if err := validateURL("continueURL", settings.URL); err != nil {
				return "", err
			}
			payload["continueUrl"] = settings.URL
		}
		if settings.HandleCodeInApp {
			payload["canHandleCodeInApp"] = true
		}
		if settings.DynamicLinkDomain != "" {
			payload["dynamicLinkDomain"] = settings.DynamicLinkDomain
		}
	}
	resp, err := c.call(ctx, opSendOobCode, nil, payload)
	if err != nil {
		return "", err
	}
	return strField(resp, "oobLink"), nil
}
