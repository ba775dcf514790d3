// pkg/identity/pages.go
package identity

import (
	"net/url"
	"strconv"
)

// Per-endpoint page bounds. Enforced client-side so an out-of-range request
// never reaches the backend.
const (
	maxExportPageSize       = 1000 // accounts:batchGet
	maxProviderListPageSize = 100  // oauthIdpConfigs / inboundSamlConfigs
)

// PageParams selects a result page for list/export calls. MaxResults 0 means
// the endpoint default; PageToken nil means the first page. A set-but-empty
// token is rejected: it is always a bug on the caller side, not "no token".
type PageParams struct {
	MaxResults int
	PageToken  *string
}

// String returns a pointer to s, for PageToken and tri-state update fields.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int64 returns a pointer to i.
func Int64(i int64) *int64 { return &i }

// normalizePage applies the endpoint default and bound and encodes the page
// selection under the endpoint's query-parameter names.
func normalizePage(p PageParams, bound int, sizeParam, tokenParam string) (url.Values, error) {
	n := p.MaxResults
	if n == 0 {
		n = bound
	}
	if n < 0 {
		return nil, argErrorf("maxResults must be a positive integer, got %d", p.MaxResults)
	}
	if n > bound {
		return nil, argErrorf("maxResults must not exceed %d, got %d", bound, n)
	}
	q := url.Values{}
	q.Set(sizeParam, strconv.Itoa(n))
	if p.PageToken != nil {
		if *p.PageToken == "" {
			return nil, argErrorf("page token must be a non-empty string")
		}
		q.Set(tokenParam, *p.PageToken)
	}
	return q, nil
}

// collectionOf returns the named list field of a decoded response, normalized
// to an empty slice when the backend omits it entirely.
func collectionOf(resp map[string]any, field string) []map[string]any {
	raw, ok := resp[field].([]any)
	if !ok {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func nextPageTokenOf(resp map[string]any) string {
	s, _ := resp["nextPageToken"].(string)
	return s
}
