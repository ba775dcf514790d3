package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idadmin/pkg/identity"
)

type oidcBody struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"displayName"`
	Enabled     *bool   `json:"enabled"`
	ClientID    *string `json:"clientId"`
	Issuer      *string `json:"issuer"`
}

func (a *App) createOIDCConfig(w http.ResponseWriter, r *http.Request) {
	var b oidcBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	cfg, err := a.sdk.CreateOIDCProviderConfig(r.Context(), &identity.OIDCProviderConfigToCreate{
		ID: b.ID, DisplayName: b.DisplayName, Enabled: b.Enabled,
		ClientID: b.ClientID, Issuer: b.Issuer,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusCreated)
}

func (a *App) getOIDCConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.sdk.GetOIDCProviderConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

func (a *App) updateOIDCConfig(w http.ResponseWriter, r *http.Request) {
	var b oidcBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	cfg, err := a.sdk.UpdateOIDCProviderConfig(r.Context(), chi.URLParam(r, "id"), &identity.OIDCProviderConfigToUpdate{
		DisplayName: b.DisplayName, Enabled: b.Enabled,
		ClientID: b.ClientID, Issuer: b.Issuer,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

func (a *App) deleteOIDCConfig(w http.ResponseWriter, r *http.Request) {
	if err := a.sdk.DeleteOIDCProviderConfig(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) listOIDCConfigs(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		http.Error(w, "maxResults must be an integer", http.StatusBadRequest)
		return
	}
	res, err := a.sdk.ListOIDCProviderConfigs(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

type samlBody struct {
	ID                    string    `json:"id"`
	DisplayName           *string   `json:"displayName"`
	Enabled               *bool     `json:"enabled"`
	IDPEntityID           *string   `json:"idpEntityId"`
	SSOURL                *string   `json:"ssoURL"`
	RequestSigningEnabled *bool     `json:"requestSigningEnabled"`
	X509Certificates      *[]string `json:"x509Certificates"`
	RPEntityID            *string   `json:"rpEntityId"`
	CallbackURL           *string   `json:"callbackURL"`
}

func (a *App) createSAMLConfig(w http.ResponseWriter, r *http.Request) {
	var b samlBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	create := &identity.SAMLProviderConfigToCreate{
		ID: b.ID, DisplayName: b.DisplayName, Enabled: b.Enabled,
		IDPEntityID: b.IDPEntityID, SSOURL: b.SSOURL,
		RequestSigningEnabled: b.RequestSigningEnabled,
		RPEntityID:            b.RPEntityID, CallbackURL: b.CallbackURL,
	}
	if b.X509Certificates != nil {
		create.X509Certificates = *b.X509Certificates
	}
	cfg, err := a.sdk.CreateSAMLProviderConfig(r.Context(), create)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusCreated)
}

func (a *App) getSAMLConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.sdk.GetSAMLProviderConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

func (a *App) updateSAMLConfig(w http.ResponseWriter, r *http.Request) {
	var b samlBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	cfg, err := a.sdk.UpdateSAMLProviderConfig(r.Context(), chi.URLParam(r, "id"), &identity.SAMLProviderConfigToUpdate{
		DisplayName: b.DisplayName, Enabled: b.Enabled,
		IDPEntityID: b.IDPEntityID, SSOURL: b.SSOURL,
		RequestSigningEnabled: b.RequestSigningEnabled,
		X509Certificates:      b.X509Certificates,
		RPEntityID:            b.RPEntityID, CallbackURL: b.CallbackURL,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, cfg, http.StatusOK)
}

func (a *App) deleteSAMLConfig(w http.ResponseWriter, r *http.Request) {
	if err := a.sdk.DeleteSAMLProviderConfig(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) listSAMLConfigs(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		http.Error(w, "maxResults must be an integer", http.StatusBadRequest)
		return
	}
	res, err := a.sdk.ListSAMLProviderConfigs(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}
