// pkg/identity/dispatch.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	jmes "github.com/jmespath/go-jmespath"
)

// operation is a static descriptor of one backend endpoint: relative path,
// verb, and the response fields whose absence means the backend broke the
// contract (as opposed to a business error). Required fields are jmespath
// expressions evaluated against the decoded response.
type operation struct {
	name     string
	method   string
	path     string // appended to the resolved project/tenant prefix
	required []string
}

var (
	opLookup        = operation{name: "accounts.lookup", method: http.MethodPost, path: "/accounts:lookup"}
	opSignUp        = operation{name: "accounts.create", method: http.MethodPost, path: "/accounts", required: []string{"localId"}}
	opUpdateAccount = operation{name: "accounts.update", method: http.MethodPost, path: "/accounts:update", required: []string{"localId"}}
	opDeleteAccount = operation{name: "accounts.delete", method: http.MethodPost, path: "/accounts:delete"}
	opBatchGet      = operation{name: "accounts.batchGet", method: http.MethodGet, path: "/accounts:batchGet"}
	opBatchCreate   = operation{name: "accounts.batchCreate", method: http.MethodPost, path: "/accounts:batchCreate"}
	opSendOobCode   = operation{name: "accounts.sendOobCode", method: http.MethodPost, path: "/accounts:sendOobCode", required: []string{"oobLink"}}
	opSessionCookie = operation{name: "sessions.createCookie", method: http.MethodPost, path: ":createSessionCookie", required: []string{"sessionCookie"}}

	opCreateOIDC = operation{name: "oidc.create", method: http.MethodPost, path: "/oauthIdpConfigs", required: []string{"name"}}
	opListOIDC   = operation{name: "oidc.list", method: http.MethodGet, path: "/oauthIdpConfigs"}
	opCreateSAML = operation{name: "saml.create", method: http.MethodPost, path: "/inboundSamlConfigs", required: []string{"name"}}
	opListSAML   = operation{name: "saml.list", method: http.MethodGet, path: "/inboundSamlConfigs"}
)

// at returns a copy of the descriptor addressing a specific resource, e.g.
// opListOIDC.at("oidc.myprovider", "oidc.get", http.MethodGet).
func (o operation) at(id, name, method string, required ...string) operation {
	return operation{name: name, method: method, path: o.path + "/" + id, required: required}
}

// call resolves the path prefix, builds and sends the request, and validates
// the response shape. It is the single choke point: every operation issues
// exactly one call through here.
func (c *Client) call(ctx context.Context, op operation, q url.Values, body any) (map[string]any, error) {
	resp, err := c.dispatch(ctx, op, q, body)
	observeCall(op.name, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) dispatch(ctx context.Context, op operation, q url.Values, body any) (map[string]any, error) {
	prefix, err := c.prefix(ctx)
	if err != nil {
		return nil, err
	}
	u := c.baseURL + prefix + op.path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, argErrorf("request payload is not JSON-serializable: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, op.method, u, rd)
	if err != nil {
		return nil, argErrorf("building %s request: %v", op.name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-Request-Id", uuid.NewString())
	if c.creds != nil {
		tok, err := c.creds.AccessToken(ctx)
		if err != nil {
			return nil, transportError(err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.hc.Do(req)
	if err != nil {
		c.log.Warnw("backend call failed", "op", op.name, "err", err)
		return nil, transportError(err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		cerr := c.translator.Translate(raw)
		c.log.Debugw("backend rejected call", "op", op.name, "status", res.StatusCode, "code", cerr.Code)
		return nil, cerr
	}

	decoded := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, protocolErrorf("backend returned a non-JSON body for %s", op.name)
		}
	}
	for _, expr := range op.required {
		v, err := jmes.Search(expr, decoded)
		if err != nil || v == nil {
			return nil, protocolErrorf("backend response for %s is missing %s", op.name, expr)
		}
	}
	return decoded, nil
}
