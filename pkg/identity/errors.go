// pkg/identity/errors.go
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind separates the failure classes surfaced by the SDK. Argument and
// protocol failures never reach the network layer or are never retried;
// transport failures are passed through from the HTTP client untouched.
type Kind int

const (
	KindArgument  Kind = iota + 1 // malformed caller input, detected before any network call
	KindBackend                   // business condition reported by the backend
	KindProtocol                  // backend response violated the expected shape
	KindTransport                 // network/timeout failure from the HTTP client
	KindToken                     // session-artifact verification rejection
)

// Stable client-facing error codes. The set of backend codes feeding them is
// open-ended; see Translator.
const (
	CodeInvalidArgument           = "invalid-argument"
	CodeUserNotFound              = "user-not-found"
	CodeEmailAlreadyExists        = "email-already-exists"
	CodePhoneNumberAlreadyExists  = "phone-number-already-exists"
	CodeUIDAlreadyExists          = "uid-already-exists"
	CodeInvalidPageToken          = "invalid-page-token"
	CodeConfigurationNotFound     = "configuration-not-found"
	CodeOperationNotAllowed       = "operation-not-allowed"
	CodeTenantNotFound            = "tenant-not-found"
	CodeUnauthorizedDomain        = "unauthorized-continue-uri"
	CodeInvalidDynamicLinkDomain  = "invalid-dynamic-link-domain"
	CodeUserDisabled              = "user-disabled"
	CodeIDTokenRevoked            = "id-token-revoked"
	CodeSessionCookieRevoked      = "session-cookie-revoked"
	CodeTenantIDMismatch          = "tenant-id-mismatch"
	CodeInvalidToken              = "invalid-token"
	CodeMaximumUserCountExceeded  = "maximum-user-count-exceeded"
	CodeInvalidHashAlgorithm      = "invalid-hash-algorithm"
	CodeInternal                  = "internal-error"
	CodeUnavailable               = "backend-unavailable"
)

// Error is the one error type returned by every operation.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	wrapped error
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

func argErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindArgument, Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func protocolErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindProtocol, Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Code: CodeUnavailable, Message: err.Error(), wrapped: err}
}

func errCode(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsInvalidArgument reports whether err is a caller-input error.
func IsInvalidArgument(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindArgument
}

// IsUserNotFound reports whether err means the addressed user does not exist.
func IsUserNotFound(err error) bool {
	c, ok := errCode(err)
	return ok && c == CodeUserNotFound
}

// IsConfigurationNotFound reports whether err means the addressed provider
// config does not exist.
func IsConfigurationNotFound(err error) bool {
	c, ok := errCode(err)
	return ok && c == CodeConfigurationNotFound
}

// IsEmailAlreadyExists reports whether err means the email is taken.
func IsEmailAlreadyExists(err error) bool {
	c, ok := errCode(err)
	return ok && c == CodeEmailAlreadyExists
}

// IsTokenRevoked reports whether err means the presented session artifact was
// invalidated by a revocation cutoff.
func IsTokenRevoked(err error) bool {
	c, ok := errCode(err)
	return ok && (c == CodeIDTokenRevoked || c == CodeSessionCookieRevoked)
}

type codeMapping struct {
	Code    string
	Message string
}

// Known backend machine codes. The backend owns this vocabulary and grows it
// over time, so the table is a seed, not a closed switch: unknown codes fall
// through to internal-error with the backend text echoed verbatim.
var defaultBackendCodes = map[string]codeMapping{
	"USER_NOT_FOUND":              {CodeUserNotFound, "no user record found for the given identifier"},
	"USER_DELETED":                {CodeUserNotFound, "no user record found for the given identifier"},
	"EMAIL_EXISTS":                {CodeEmailAlreadyExists, "the email address is already in use by another account"},
	"DUPLICATE_EMAIL":             {CodeEmailAlreadyExists, "the email address is already in use by another account"},
	"PHONE_NUMBER_EXISTS":         {CodePhoneNumberAlreadyExists, "the phone number is already in use by another account"},
	"DUPLICATE_LOCAL_ID":          {CodeUIDAlreadyExists, "the user identifier is already in use by another account"},
	"INVALID_PAGE_SELECTION":      {CodeInvalidPageToken, "the page token is invalid or expired"},
	"CONFIGURATION_NOT_FOUND":     {CodeConfigurationNotFound, "no identity provider configuration found for the given identifier"},
	"OPERATION_NOT_ALLOWED":       {CodeOperationNotAllowed, "the requested operation is disabled for this project"},
	"TENANT_NOT_FOUND":            {CodeTenantNotFound, "no tenant found for the given identifier"},
	"INVALID_DYNAMIC_LINK_DOMAIN": {CodeInvalidDynamicLinkDomain, "the dynamic link domain is not authorized for this project"},
	"UNAUTHORIZED_DOMAIN":         {CodeUnauthorizedDomain, "the continue URL domain is not whitelisted for this project"},
	"USER_DISABLED":               {CodeUserDisabled, "the user account has been disabled"},
	"INVALID_ID_TOKEN":            {CodeInvalidToken, "the provided token is not a valid session artifact"},
	"TOKEN_EXPIRED":               {CodeInvalidToken, "the provided token has expired"},
}

// Translator maps backend-reported machine codes onto the stable client
// taxonomy. Instances are independent; Register and LoadOverlay mutate only
// the receiver's table.
type Translator struct {
	table map[string]codeMapping
}

func NewTranslator() *Translator {
	t := &Translator{table: make(map[string]codeMapping, len(defaultBackendCodes))}
	for k, v := range defaultBackendCodes {
		t.table[k] = v
	}
	return t
}

// Register adds or replaces a backend-code mapping.
func (t *Translator) Register(backendCode, clientCode, message string) {
	t.table[strings.ToUpper(strings.TrimSpace(backendCode))] = codeMapping{Code: clientCode, Message: message}
}

type overlayFile struct {
	Codes []struct {
		Backend string `yaml:"backend"`
		Code    string `yaml:"code"`
		Message string `yaml:"message"`
	} `yaml:"codes"`
}

// LoadOverlay merges additional mappings from a YAML file, e.g.
//
//	codes:
//	  - backend: SECOND_FACTOR_EXISTS
//	    code: second-factor-already-enrolled
//	    message: the second factor is already enrolled
func (t *Translator) LoadOverlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f overlayFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("error table %s: %w", path, err)
	}
	for _, c := range f.Codes {
		if c.Backend == "" || c.Code == "" {
			return fmt.Errorf("error table %s: entries need backend and code", path)
		}
		t.Register(c.Backend, c.Code, c.Message)
	}
	return nil
}

type backendEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Translate turns a non-2xx backend response body into a client error. The
// backend envelope is {"error":{"message":"CODE: optional detail"}}; anything
// else (bare HTTP failures included) degrades to internal-error carrying the
// raw body so nothing is silently dropped.
func (t *Translator) Translate(body []byte) *Error {
	var env backendEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		return &Error{Kind: KindBackend, Code: CodeInternal, Message: "unexpected backend response: " + strings.TrimSpace(string(body))}
	}
	return t.translateCode(env.Error.Message)
}

func (t *Translator) translateCode(raw string) *Error {
	code := raw
	detail := ""
	if i := strings.IndexAny(raw, ": "); i >= 0 {
		code = raw[:i]
		detail = strings.TrimLeft(raw[i+1:], ": ")
	}
	if m, ok := t.table[code]; ok {
		msg := m.Message
		if detail != "" {
			msg = msg + " (" + detail + ")"
		}
		return &Error{Kind: KindBackend, Code: m.Code, Message: msg}
	}
	return &Error{Kind: KindBackend, Code: CodeInternal, Message: "backend error: " + raw}
}
