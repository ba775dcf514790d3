// pkg/identity/providers.go
package identity

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// CreateOIDCProviderConfig stores a new OIDC provider config. The id travels
// as a query parameter, the remaining fields in the body.
func (c *Client) CreateOIDCProviderConfig(ctx context.Context, cfg *OIDCProviderConfigToCreate) (*OIDCProviderConfig, error) {
	if cfg == nil {
		return nil, argErrorf("provider config must not be nil")
	}
	if err := validateOIDCConfigID(cfg.ID); err != nil {
		return nil, err
	}
	if cfg.ClientID == nil || *cfg.ClientID == "" {
		return nil, argErrorf("OIDC provider config %q needs a client id", cfg.ID)
	}
	if cfg.Issuer == nil {
		return nil, argErrorf("OIDC provider config %q needs an issuer", cfg.ID)
	}
	if err := validateURL("issuer", *cfg.Issuer); err != nil {
		return nil, err
	}
	payload := map[string]any{"clientId": *cfg.ClientID, "issuer": *cfg.Issuer}
	if cfg.DisplayName != nil {
		payload["displayName"] = *cfg.DisplayName
	}
	if cfg.Enabled != nil {
		payload["enabled"] = *cfg.Enabled
	}
	q := url.Values{}
	q.Set("oauthIdpConfigId", cfg.ID)
	resp, err := c.call(ctx, opCreateOIDC, q, payload)
	if err != nil {
		return nil, err
	}
	return parseOIDCConfig(resp), nil
}

// GetOIDCProviderConfig fetches one OIDC provider config.
func (c *Client) GetOIDCProviderConfig(ctx context.Context, id string) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, opListOIDC.at(id, "oidc.get", http.MethodGet, "name"), nil, nil)
	if err != nil {
		return nil, err
	}
	return parseOIDCConfig(resp), nil
}

// buildOIDCUpdate walks the canonical OIDC field order and emits the minimal
// payload plus the field-mask entries for every field the caller touched.
// The order is fixed so the same partial update always yields a byte-identical
// mask string, whatever order the caller assigned fields in.
func buildOIDCUpdate(cfg *OIDCProviderConfigToUpdate) (map[string]any, []string, error) {
	payload := map[string]any{}
	var mask []string
	if cfg.ClientID != nil {
		if *cfg.ClientID == "" {
			return nil, nil, argErrorf("client id must not be cleared")
		}
		payload["clientId"] = *cfg.ClientID
		mask = append(mask, "clientId")
	}
	if cfg.DisplayName != nil {
		if *cfg.DisplayName == "" {
			payload["displayName"] = nil
		} else {
			payload["displayName"] = *cfg.DisplayName
		}
		mask = append(mask, "displayName")
	}
	if cfg.Enabled != nil {
		payload["enabled"] = *cfg.Enabled
		mask = append(mask, "enabled")
	}
	if cfg.Issuer != nil {
		if err := validateURL("issuer", *cfg.Issuer); err != nil {
			return nil, nil, err
		}
		payload["issuer"] = *cfg.Issuer
		mask = append(mask, "issuer")
	}
	return payload, mask, nil
}

// UpdateOIDCProviderConfig patches the touched fields of an OIDC provider
// config and returns the updated resource.
func (c *Client) UpdateOIDCProviderConfig(ctx context.Context, id string, cfg *OIDCProviderConfigToUpdate) (*OIDCProviderConfig, error) {
	if err := validateOIDCConfigID(id); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, argErrorf("update must not be nil")
	}
	payload, mask, err := buildOIDCUpdate(cfg)
	if err != nil {
		return nil, err
	}
	resp, err := c.patchConfig(ctx, opListOIDC.path, id, "oidc.update", mask, payload)
	if err != nil {
		return nil, err
	}
	return parseOIDCConfig(resp), nil
}

// DeleteOIDCProviderConfig removes one OIDC provider config.
func (c *Client) DeleteOIDCProviderConfig(ctx context.Context, id string) error {
	if err := validateOIDCConfigID(id); err != nil {
		return err
	}
	_, err := c.call(ctx, opListOIDC.at(id, "oidc.delete", http.MethodDelete), nil, nil)
	return err
}

// ListOIDCProviderConfigs lists one page of OIDC provider configs.
func (c *Client) ListOIDCProviderConfigs(ctx context.Context, page PageParams) (*ListOIDCProviderConfigsResult, error) {
	q, err := normalizePage(page, maxProviderListPageSize, "pageSize", "pageToken")
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, opListOIDC, q, nil)
	if err != nil {
		return nil, err
	}
	out := &ListOIDCProviderConfigsResult{
		Configs:       []*OIDCProviderConfig{},
		NextPageToken: nextPageTokenOf(resp),
	}
	for _, m := range collectionOf(resp, "oauthIdpConfigs") {
		out.Configs = append(out.Configs, parseOIDCConfig(m))
	}
	return out, nil
}

func encodeCertificates(pems []string) []map[string]any {
	out := make([]map[string]any, 0, len(pems))
	for _, pem := range pems {
		out = append(out, map[string]any{"x509Certificate": pem})
	}
	return out
}

// CreateSAMLProviderConfig stores a new SAML provider config.
func (c *Client) CreateSAMLProviderConfig(ctx context.Context, cfg *SAMLProviderConfigToCreate) (*SAMLProviderConfig, error) {
	if cfg == nil {
		return nil, argErrorf("provider config must not be nil")
	}
	if err := validateSAMLConfigID(cfg.ID); err != nil {
		return nil, err
	}
	if cfg.IDPEntityID == nil || *cfg.IDPEntityID == "" {
		return nil, argErrorf("SAML provider config %q needs an IdP entity id", cfg.ID)
	}
	if cfg.SSOURL == nil {
		return nil, argErrorf("SAML provider config %q needs an SSO URL", cfg.ID)
	}
	if err := validateURL("ssoURL", *cfg.SSOURL); err != nil {
		return nil, err
	}
	if len(cfg.X509Certificates) == 0 {
		return nil, argErrorf("SAML provider config %q needs at least one x509 certificate", cfg.ID)
	}
	if cfg.RPEntityID == nil || *cfg.RPEntityID == "" {
		return nil, argErrorf("SAML provider config %q needs an RP entity id", cfg.ID)
	}
	if cfg.CallbackURL == nil {
		return nil, argErrorf("SAML provider config %q needs a callback URL", cfg.ID)
	}
	if err := validateURL("callbackURL", *cfg.CallbackURL); err != nil {
		return nil, err
	}

	idp := map[string]any{
		"idpEntityId":     *cfg.IDPEntityID,
		"ssoUrl":          *cfg.SSOURL,
		"idpCertificates": encodeCertificates(cfg.X509Certificates),
	}
	if cfg.RequestSigningEnabled != nil {
		idp["signRequest"] = *cfg.RequestSigningEnabled
	}
	payload := map[string]any{
		"idpConfig": idp,
		"spConfig":  map[string]any{"spEntityId": *cfg.RPEntityID, "callbackUri": *cfg.CallbackURL},
	}
	if cfg.DisplayName != nil {
		payload["displayName"] = *cfg.DisplayName
	}
	if cfg.Enabled != nil {
		payload["enabled"] = *cfg.Enabled
	}
	q := url.Values{}
	q.Set("inboundSamlConfigId", cfg.ID)
	resp, err := c.call(ctx, opCreateSAML, q, payload)
	if err != nil {
		return nil, err
	}
	return parseSAMLConfig(resp), nil
}

// GetSAMLProviderConfig fetches one SAML provider config.
func (c *Client) GetSAMLProviderConfig(ctx context.Context, id string) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, opListSAML.at(id, "saml.get", http.MethodGet, "name"), nil, nil)
	if err != nil {
		return nil, err
	}
	return parseSAMLConfig(resp), nil
}

// buildSAMLUpdate emits the minimal nested payload plus dotted field-mask
// entries, in the canonical order: displayName, enabled, the idpConfig group,
// then the spConfig group. Groups flatten into dotted mask entries while the
// payload stays nested.
func buildSAMLUpdate(cfg *SAMLProviderConfigToUpdate) (map[string]any, []string, error) {
	payload := map[string]any{}
	var mask []string
	idp := map[string]any{}
	sp := map[string]any{}

	if cfg.DisplayName != nil {
		if *cfg.DisplayName == "" {
			payload["displayName"] = nil
		} else {
			payload["displayName"] = *cfg.DisplayName
		}
		mask = append(mask, "displayName")
	}
	if cfg.Enabled != nil {
		payload["enabled"] = *cfg.Enabled
		mask = append(mask, "enabled")
	}
	if cfg.IDPEntityID != nil {
		if *cfg.IDPEntityID == "" {
			return nil, nil, argErrorf("IdP entity id must not be cleared")
		}
		idp["idpEntityId"] = *cfg.IDPEntityID
		mask = append(mask, "idpConfig.idpEntityId")
	}
	if cfg.SSOURL != nil {
		if err := validateURL("ssoURL", *cfg.SSOURL); err != nil {
			return nil, nil, err
		}
		idp["ssoUrl"] = *cfg.SSOURL
		mask = append(mask, "idpConfig.ssoUrl")
	}
	if cfg.RequestSigningEnabled != nil {
		idp["signRequest"] = *cfg.RequestSigningEnabled
		mask = append(mask, "idpConfig.signRequest")
	}
	if cfg.X509Certificates != nil {
		if len(*cfg.X509Certificates) == 0 {
			return nil, nil, argErrorf("at least one x509 certificate is required")
		}
		idp["idpCertificates"] = encodeCertificates(*cfg.X509Certificates)
		mask = append(mask, "idpConfig.idpCertificates")
	}
	if cfg.RPEntityID != nil {
		if *cfg.RPEntityID == "" {
			return nil, nil, argErrorf("RP entity id must not be cleared")
		}
		sp["spEntityId"] = *cfg.RPEntityID
		mask = append(mask, "spConfig.spEntityId")
	}
	if cfg.CallbackURL != nil {
		if err := validateURL("callbackURL", *cfg.CallbackURL); err != nil {
			return nil, nil, err
		}
		sp["callbackUri"] = *cfg.CallbackURL
		mask = append(mask, "spConfig.callbackUri")
	}
	if len(idp) > 0 {
		payload["idpConfig"] = idp
	}
	if len(sp) > 0 {
		payload["spConfig"] = sp
	}
	return payload, mask, nil
}

// UpdateSAMLProviderConfig patches the touched fields of a SAML provider
// config and returns the updated resource.
func (c *Client) UpdateSAMLProviderConfig(ctx context.Context, id string, cfg *SAMLProviderConfigToUpdate) (*SAMLProviderConfig, error) {
	if err := validateSAMLConfigID(id); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, argErrorf("update must not be nil")
	}
	payload, mask, err := buildSAMLUpdate(cfg)
	if err != nil {
		return nil, err
	}
	resp, err := c.patchConfig(ctx, opListSAML.path, id, "saml.update", mask, payload)
	if err != nil {
		return nil, err
	}
	return parseSAMLConfig(resp), nil
}

// DeleteSAMLProviderConfig removes one SAML provider config.
func (c *Client) DeleteSAMLProviderConfig(ctx context.Context, id string) error {
	if err := validateSAMLConfigID(id); err != nil {
		return err
	}
	_, err := c.call(ctx, opListSAML.at(id, "saml.delete", http.MethodDelete), nil, nil)
	return err
}

// ListSAMLProviderConfigs lists one page of SAML provider configs.
func (c *Client) ListSAMLProviderConfigs(ctx context.Context, page PageParams) (*ListSAMLProviderConfigsResult, error) {
	q, err := normalizePage(page, maxProviderListPageSize, "pageSize", "pageToken")
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, opListSAML, q, nil)
	if err != nil {
		return nil, err
	}
	out := &ListSAMLProviderConfigsResult{
		Configs:       []*SAMLProviderConfig{},
		NextPageToken: nextPageTokenOf(resp),
	}
	for _, m := range collectionOf(resp, "inboundSamlConfigs") {
		out.Configs = append(out.Configs, parseSAMLConfig(m))
	}
	return out, nil
}

// patchConfig issues the PATCH with the comma-joined mask embedded literally
// in the query; the mask syntax is part of the wire contract and must not be
// percent-escaped.
func (c *Client) patchConfig(ctx context.Context, basePath, id, name string, mask []string, payload map[string]any) (map[string]any, error) {
	if len(mask) == 0 {
		return nil, argErrorf("update contains no fields")
	}
	op := operation{
		name:     name,
		method:   http.MethodPatch,
		path:     basePath + "/" + id + "?updateMask=" + strings.Join(mask, ","),
		required: []string{"name"},
	}
	return c.call(ctx, op, nil, payload)
}
