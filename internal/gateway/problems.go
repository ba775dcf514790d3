package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"idadmin/pkg/identity"
)

// problemBase returns the base URL for problem type identifiers.
// Order of precedence:
// 1. PROBLEM_BASE_URL (exact base, e.g. https://mydomain.com/problems)
// 2. BASE_PUBLIC_URL + "/problems" (if set)
// 3. https://example.com/problems (fallback)
func problemBase() string {
	if b := os.Getenv("PROBLEM_BASE_URL"); b != "" {
		return strings.TrimRight(b, "/")
	}
	if b := os.Getenv("BASE_PUBLIC_URL"); b != "" {
		return strings.TrimRight(b, "/") + "/problems"
	}
	return "https://example.com/problems"
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps SDK errors onto problem responses with stable codes.
func writeErr(w http.ResponseWriter, err error) {
	var e *identity.Error
	if !errors.As(err, &e) {
		writeJSON(w, problem{Type: problemBase() + "/internal", Title: "Internal error", Status: 500}, 500)
		return
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case identity.KindArgument:
		status = http.StatusBadRequest
	case identity.KindToken:
		status = http.StatusUnauthorized
	case identity.KindProtocol:
		status = http.StatusBadGateway
	case identity.KindTransport:
		status = http.StatusGatewayTimeout
	case identity.KindBackend:
		switch e.Code {
		case identity.CodeUserNotFound, identity.CodeConfigurationNotFound, identity.CodeTenantNotFound:
			status = http.StatusNotFound
		case identity.CodeEmailAlreadyExists, identity.CodePhoneNumberAlreadyExists, identity.CodeUIDAlreadyExists:
			status = http.StatusConflict
		case identity.CodeOperationNotAllowed:
			status = http.StatusForbidden
		case identity.CodeInvalidPageToken:
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, problem{
		Type:   problemBase() + "/" + e.Code,
		Title:  http.StatusText(status),
		Status: status,
		Detail: e.Message,
		Code:   e.Code,
	}, status)
}
