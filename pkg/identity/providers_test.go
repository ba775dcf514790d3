package identity

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestBuildOIDCUpdateMask(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *OIDCProviderConfigToUpdate
		wantMask []string
		wantErr  bool
	}{
		{
			name: "full update emits canonical order",
			cfg: &OIDCProviderConfigToUpdate{
				Issuer:      String("https://issuer.example.com"),
				Enabled:     Bool(true),
				ClientID:    String("client-1"),
				DisplayName: String("My IdP"),
			},
			wantMask: []string{"clientId", "displayName", "enabled", "issuer"},
		},
		{
			name:     "single field",
			cfg:      &OIDCProviderConfigToUpdate{Enabled: Bool(false)},
			wantMask: []string{"enabled"},
		},
		{
			name:     "cleared display name still masked",
			cfg:      &OIDCProviderConfigToUpdate{DisplayName: String("")},
			wantMask: []string{"displayName"},
		},
		{
			name:    "client id cannot be cleared",
			cfg:     &OIDCProviderConfigToUpdate{ClientID: String("")},
			wantErr: true,
		},
		{
			name:    "issuer must be a url",
			cfg:     &OIDCProviderConfigToUpdate{Issuer: String("not a url")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, mask, err := buildOIDCUpdate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildOIDCUpdate err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(mask, tt.wantMask) {
				t.Fatalf("mask = %v, want %v", mask, tt.wantMask)
			}
			if len(payload) != len(tt.wantMask) {
				t.Fatalf("payload has %d fields for %d mask entries: %v", len(payload), len(tt.wantMask), payload)
			}
		})
	}
}

func TestBuildOIDCUpdateClearedDisplayNameIsNull(t *testing.T) {
	payload, _, err := buildOIDCUpdate(&OIDCProviderConfigToUpdate{DisplayName: String("")})
	if err != nil {
		t.Fatalf("buildOIDCUpdate: %v", err)
	}
	v, present := payload["displayName"]
	if !present || v != nil {
		t.Fatalf("displayName = %v (present %v), want explicit null", v, present)
	}
}

func TestBuildSAMLUpdateMask(t *testing.T) {
	certs := []string{"PEM"}
	tests := []struct {
		name     string
		cfg      *SAMLProviderConfigToUpdate
		wantMask []string
		wantErr  bool
	}{
		{
			name:     "sso url alone",
			cfg:      &SAMLProviderConfigToUpdate{SSOURL: String("https://sso.example.com")},
			wantMask: []string{"idpConfig.ssoUrl"},
		},
		{
			name: "full update emits canonical order",
			cfg: &SAMLProviderConfigToUpdate{
				CallbackURL:           String("https://app.example.com/cb"),
				RPEntityID:            String("rp-1"),
				X509Certificates:      &certs,
				RequestSigningEnabled: Bool(true),
				SSOURL:                String("https://sso.example.com"),
				IDPEntityID:           String("idp-1"),
				Enabled:               Bool(true),
				DisplayName:           String("My SAML"),
			},
			wantMask: []string{
				"displayName", "enabled",
				"idpConfig.idpEntityId", "idpConfig.ssoUrl", "idpConfig.signRequest", "idpConfig.idpCertificates",
				"spConfig.spEntityId", "spConfig.callbackUri",
			},
		},
		{
			name:    "idp entity id cannot be cleared",
			cfg:     &SAMLProviderConfigToUpdate{IDPEntityID: String("")},
			wantErr: true,
		},
		{
			name:    "certificates cannot be emptied",
			cfg:     &SAMLProviderConfigToUpdate{X509Certificates: &[]string{}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, mask, err := buildSAMLUpdate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildSAMLUpdate err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(mask, tt.wantMask) {
				t.Fatalf("mask = %v, want %v", mask, tt.wantMask)
			}
			if strings.Contains(tt.name, "sso url") {
				idp, _ := payload["idpConfig"].(map[string]any)
				if idp["ssoUrl"] != "https://sso.example.com" {
					t.Fatalf("payload = %v", payload)
				}
				if _, ok := payload["spConfig"]; ok {
					t.Fatal("untouched spConfig group present in payload")
				}
			}
		})
	}
}

func TestCreateOIDCProviderConfig(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"name":        "projects/proj-1/oauthIdpConfigs/oidc.my-provider",
		"clientId":    "client-1",
		"issuer":      "https://issuer.example.com",
		"displayName": "My IdP",
		"enabled":     true,
	})
	c := newTestClient(t, srv)

	cfg, err := c.CreateOIDCProviderConfig(context.Background(), &OIDCProviderConfigToCreate{
		ID:          "oidc.my-provider",
		ClientID:    String("client-1"),
		Issuer:      String("https://issuer.example.com"),
		DisplayName: String("My IdP"),
		Enabled:     Bool(true),
	})
	if err != nil {
		t.Fatalf("CreateOIDCProviderConfig: %v", err)
	}
	if cap.method != http.MethodPost || cap.path != "/v1/projects/proj-1/oauthIdpConfigs" {
		t.Fatalf("wire call = %s %s", cap.method, cap.path)
	}
	if cap.rawQuery != "oauthIdpConfigId=oidc.my-provider" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
	want := map[string]any{
		"clientId":    "client-1",
		"issuer":      "https://issuer.example.com",
		"displayName": "My IdP",
		"enabled":     true,
	}
	if !reflect.DeepEqual(cap.body, want) {
		t.Fatalf("payload = %v, want %v", cap.body, want)
	}
	if cfg.ID != "oidc.my-provider" || cfg.ClientID != "client-1" || !cfg.Enabled {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestCreateOIDCProviderConfigValidation(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	tests := []struct {
		name string
		cfg  *OIDCProviderConfigToCreate
	}{
		{name: "nil config", cfg: nil},
		{name: "bad id prefix", cfg: &OIDCProviderConfigToCreate{ID: "saml.x", ClientID: String("c"), Issuer: String("https://i.example.com")}},
		{name: "missing client id", cfg: &OIDCProviderConfigToCreate{ID: "oidc.x", Issuer: String("https://i.example.com")}},
		{name: "missing issuer", cfg: &OIDCProviderConfigToCreate{ID: "oidc.x", ClientID: String("c")}},
		{name: "issuer not a url", cfg: &OIDCProviderConfigToCreate{ID: "oidc.x", ClientID: String("c"), Issuer: String("nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.CreateOIDCProviderConfig(context.Background(), tt.cfg); !IsInvalidArgument(err) {
				t.Fatalf("err = %v", err)
			}
		})
	}
	if cap.Calls() != 0 {
		t.Fatalf("invalid config reached the network, %d calls", cap.Calls())
	}
}

func TestUpdateSAMLProviderConfigWire(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"name": "projects/proj-1/inboundSamlConfigs/saml.my-provider",
	})
	c := newTestClient(t, srv)

	_, err := c.UpdateSAMLProviderConfig(context.Background(), "saml.my-provider", &SAMLProviderConfigToUpdate{
		DisplayName: String("Renamed"),
		SSOURL:      String("https://sso.example.com"),
	})
	if err != nil {
		t.Fatalf("UpdateSAMLProviderConfig: %v", err)
	}
	if cap.method != http.MethodPatch {
		t.Fatalf("method = %q", cap.method)
	}
	if cap.path != "/v1/projects/proj-1/inboundSamlConfigs/saml.my-provider" {
		t.Fatalf("path = %q", cap.path)
	}
	// The mask's commas are part of the wire contract and must arrive
	// unescaped.
	if cap.rawQuery != "updateMask=displayName,idpConfig.ssoUrl" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
}

func TestUpdateProviderConfigRejectsEmptyUpdate(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if _, err := c.UpdateOIDCProviderConfig(context.Background(), "oidc.x", &OIDCProviderConfigToUpdate{}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.UpdateSAMLProviderConfig(context.Background(), "saml.x", &SAMLProviderConfigToUpdate{}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if cap.Calls() != 0 {
		t.Fatalf("empty update reached the network, %d calls", cap.Calls())
	}
}

func TestGetSAMLProviderConfig(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"name":        "projects/proj-1/inboundSamlConfigs/saml.my-provider",
		"displayName": "My SAML",
		"enabled":     true,
		"idpConfig": map[string]any{
			"idpEntityId": "idp-1",
			"ssoUrl":      "https://sso.example.com",
			"signRequest": true,
			"idpCertificates": []any{
				map[string]any{"x509Certificate": "PEM-1"},
				map[string]any{"x509Certificate": "PEM-2"},
			},
		},
		"spConfig": map[string]any{
			"spEntityId":  "rp-1",
			"callbackUri": "https://app.example.com/cb",
		},
	})
	c := newTestClient(t, srv)

	cfg, err := c.GetSAMLProviderConfig(context.Background(), "saml.my-provider")
	if err != nil {
		t.Fatalf("GetSAMLProviderConfig: %v", err)
	}
	if cap.method != http.MethodGet || cap.path != "/v1/projects/proj-1/inboundSamlConfigs/saml.my-provider" {
		t.Fatalf("wire call = %s %s", cap.method, cap.path)
	}
	if cfg.ID != "saml.my-provider" || cfg.IDPEntityID != "idp-1" || cfg.SSOURL != "https://sso.example.com" {
		t.Fatalf("config = %+v", cfg)
	}
	if !cfg.RequestSigningEnabled || len(cfg.X509Certificates) != 2 {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.RPEntityID != "rp-1" || cfg.CallbackURL != "https://app.example.com/cb" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestListProviderConfigs(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"oauthIdpConfigs": []any{
			map[string]any{"name": "projects/proj-1/oauthIdpConfigs/oidc.a", "clientId": "ca"},
		},
		"nextPageToken": "next",
	})
	c := newTestClient(t, srv)

	res, err := c.ListOIDCProviderConfigs(context.Background(), PageParams{MaxResults: 10})
	if err != nil {
		t.Fatalf("ListOIDCProviderConfigs: %v", err)
	}
	if cap.rawQuery != "pageSize=10" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
	if len(res.Configs) != 1 || res.Configs[0].ID != "oidc.a" || res.NextPageToken != "next" {
		t.Fatalf("result = %+v", res)
	}
}

func TestListProviderConfigsBound(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if _, err := c.ListOIDCProviderConfigs(context.Background(), PageParams{MaxResults: 101}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.ListSAMLProviderConfigs(context.Background(), PageParams{MaxResults: 101}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if cap.Calls() != 0 {
		t.Fatalf("over-bound page size reached the network, %d calls", cap.Calls())
	}

	// Provider list default is the provider bound, not the export bound.
	res, err := c.ListSAMLProviderConfigs(context.Background(), PageParams{})
	if err != nil {
		t.Fatalf("ListSAMLProviderConfigs: %v", err)
	}
	if cap.rawQuery != "pageSize=100" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
	if res.Configs == nil || len(res.Configs) != 0 {
		t.Fatalf("empty list not normalized: %+v", res.Configs)
	}
}

func TestDeleteProviderConfig(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if err := c.DeleteOIDCProviderConfig(context.Background(), "oidc.gone"); err != nil {
		t.Fatalf("DeleteOIDCProviderConfig: %v", err)
	}
	if cap.method != http.MethodDelete || cap.path != "/v1/projects/proj-1/oauthIdpConfigs/oidc.gone" {
		t.Fatalf("wire call = %s %s", cap.method, cap.path)
	}
}
