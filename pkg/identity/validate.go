// pkg/identity/validate.go
package identity

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Pure field validators. Every request builder funnels caller input through
// these before a payload is constructed, so a rejected value never produces a
// network call.

const maxUIDLength = 128

// Claim names the backend reserves for the session artifact itself; never
// allowed as custom claims.
var reservedClaims = map[string]struct{}{
	"acr": {}, "amr": {}, "at_hash": {}, "aud": {}, "auth_time": {},
	"azp": {}, "c_hash": {}, "cnf": {}, "exp": {}, "iat": {}, "iss": {},
	"jti": {}, "nbf": {}, "nonce": {}, "sub": {}, "tenant": {},
}

func validateUID(uid string) error {
	if uid == "" {
		return argErrorf("uid must be a non-empty string")
	}
	if len(uid) > maxUIDLength {
		return argErrorf("uid %q must be at most %d characters", uid, maxUIDLength)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return argErrorf("email must be a non-empty string")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return argErrorf("malformed email address %q", email)
	}
	return nil
}

// validatePhone accepts E.164-shaped numbers only: leading '+', then digits.
func validatePhone(phone string) error {
	if phone == "" {
		return argErrorf("phone number must be a non-empty string")
	}
	if !strings.HasPrefix(phone, "+") {
		return argErrorf("phone number %q must be a valid E.164 identifier", phone)
	}
	digits := phone[1:]
	if len(digits) == 0 || len(digits) > 15 {
		return argErrorf("phone number %q must be a valid E.164 identifier", phone)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return argErrorf("phone number %q must be a valid E.164 identifier", phone)
		}
	}
	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return argErrorf("%s must be a non-empty string", field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return argErrorf("%s %q must be a valid http(s) URL", field, raw)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return argErrorf("password must be at least 6 characters long")
	}
	return nil
}

func validateDisplayName(name string) error {
	if name == "" {
		return argErrorf("display name must be a non-empty string")
	}
	return nil
}

func validateTimestampMillis(field string, millis int64) error {
	if millis <= 0 {
		return argErrorf("%s must be a positive epoch-millisecond timestamp", field)
	}
	return nil
}

const maxClaimsPayloadLength = 1000

// validateCustomClaims rejects reserved names and enforces the serialized
// size cap the backend applies to the claims blob.
func validateCustomClaims(claims map[string]any) error {
	for name := range claims {
		if _, ok := reservedClaims[name]; ok {
			return argErrorf("claim %q is reserved and cannot be set", name)
		}
	}
	b, err := json.Marshal(claims)
	if err != nil {
		return argErrorf("custom claims must be JSON-serializable: %v", err)
	}
	if len(b) > maxClaimsPayloadLength {
		return argErrorf("serialized custom claims must not exceed %d characters", maxClaimsPayloadLength)
	}
	return nil
}

// serializeCustomClaims is the single place claims become a wire string, so
// size checks and encoding cannot diverge.
func serializeCustomClaims(claims map[string]any) (string, error) {
	if err := validateCustomClaims(claims); err != nil {
		return "", err
	}
	b, _ := json.Marshal(claims)
	return string(b), nil
}

func validateProviderUserInfo(p *ProviderUserInfo) error {
	if p == nil {
		return argErrorf("provider user info must not be nil")
	}
	if p.ProviderID == "" {
		return argErrorf("provider user info is missing a provider id")
	}
	if p.UID == "" {
		return argErrorf("provider user info for %q is missing a uid", p.ProviderID)
	}
	if p.Email != "" {
		if err := validateEmail(p.Email); err != nil {
			return err
		}
	}
	if p.DisplayName != "" {
		if err := validateDisplayName(p.DisplayName); err != nil {
			return err
		}
	}
	if p.PhotoURL != "" {
		if err := validateURL("provider photoURL", p.PhotoURL); err != nil {
			return err
		}
	}
	return nil
}

// Provider-config identifiers encode their kind in the prefix; an id of the
// wrong kind is rejected before any network call.
const (
	oidcIDPrefix = "oidc."
	samlIDPrefix = "saml."
)

func validateOIDCConfigID(id string) error {
	if !strings.HasPrefix(id, oidcIDPrefix) || len(id) == len(oidcIDPrefix) {
		return argErrorf("OIDC provider config id %q must start with %q", id, oidcIDPrefix)
	}
	return nil
}

func validateSAMLConfigID(id string) error {
	if !strings.HasPrefix(id, samlIDPrefix) || len(id) == len(samlIDPrefix) {
		return argErrorf("SAML provider config id %q must start with %q", id, samlIDPrefix)
	}
	return nil
}
