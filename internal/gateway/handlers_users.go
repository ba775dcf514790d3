package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"idadmin/pkg/identity"
)

func (a *App) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.sdk.GetUser(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, user, http.StatusOK)
}

type createUserBody struct {
	UID           *string `json:"uid"`
	Email         *string `json:"email"`
	EmailVerified *bool   `json:"emailVerified"`
	PhoneNumber   *string `json:"phoneNumber"`
	DisplayName   *string `json:"displayName"`
	PhotoURL      *string `json:"photoURL"`
	Password      *string `json:"password"`
	Disabled      *bool   `json:"disabled"`
}

func (a *App) createUser(w http.ResponseWriter, r *http.Request) {
	var b createUserBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	uid, err := a.sdk.CreateUser(r.Context(), &identity.UserToCreate{
		UID: b.UID, Email: b.Email, EmailVerified: b.EmailVerified,
		PhoneNumber: b.PhoneNumber, DisplayName: b.DisplayName,
		PhotoURL: b.PhotoURL, Password: b.Password, Disabled: b.Disabled,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"uid": uid}, http.StatusCreated)
}

type updateUserBody struct {
	Email                  *string         `json:"email"`
	EmailVerified          *bool           `json:"emailVerified"`
	PhoneNumber            *string         `json:"phoneNumber"`
	DisplayName            *string         `json:"displayName"`
	PhotoURL               *string         `json:"photoURL"`
	Password               *string         `json:"password"`
	Disabled               *bool           `json:"disabled"`
	CustomClaims           *map[string]any `json:"customClaims"`
	TokensValidAfterMillis *int64          `json:"tokensValidAfterMillis"`
}

// updateUser applies a partial update. An empty string for displayName,
// photoURL or phoneNumber clears the attribute.
func (a *App) updateUser(w http.ResponseWriter, r *http.Request) {
	var b updateUserBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	uid := chi.URLParam(r, "uid")
	err := a.sdk.UpdateUser(r.Context(), uid, &identity.UserToUpdate{
		Email: b.Email, EmailVerified: b.EmailVerified,
		PhoneNumber: b.PhoneNumber, DisplayName: b.DisplayName,
		PhotoURL: b.PhotoURL, Password: b.Password, Disabled: b.Disabled,
		CustomClaims:           b.CustomClaims,
		TokensValidAfterMillis: b.TokensValidAfterMillis,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"uid": uid}, http.StatusOK)
}

func (a *App) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.sdk.DeleteUser(r.Context(), chi.URLParam(r, "uid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) revokeUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := a.sdk.RevokeRefreshTokens(r.Context(), uid, time.Now().UnixMilli()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"uid": uid, "revoked": true}, http.StatusOK)
}

// pageParams builds the SDK page selection from query params, keeping the
// token's set-but-empty state intact.
func pageParams(r *http.Request) (identity.PageParams, error) {
	p := identity.PageParams{}
	if v := r.URL.Query().Get("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, err
		}
		p.MaxResults = n
	}
	if r.URL.Query().Has("pageToken") {
		p.PageToken = identity.String(r.URL.Query().Get("pageToken"))
	}
	return p, nil
}

func (a *App) listUsers(w http.ResponseWriter, r *http.Request) {
	p, err := pageParams(r)
	if err != nil {
		http.Error(w, "maxResults must be an integer", http.StatusBadRequest)
		return
	}
	res, err := a.sdk.ListUsers(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

type importBody struct {
	Users []struct {
		UID           string                       `json:"uid"`
		Email         string                       `json:"email"`
		EmailVerified bool                         `json:"emailVerified"`
		DisplayName   string                       `json:"displayName"`
		PhotoURL      string                       `json:"photoURL"`
		PhoneNumber   string                       `json:"phoneNumber"`
		Disabled      bool                         `json:"disabled"`
		CreatedAt     int64                        `json:"createdAtMillis"`
		LastLoginAt   int64                        `json:"lastLoginAtMillis"`
		CustomClaims  map[string]any               `json:"customClaims"`
		PasswordHash  []byte                       `json:"passwordHash"` // base64
		PasswordSalt  []byte                       `json:"passwordSalt"` // base64
		TenantID      string                       `json:"tenantId"`
		Providers     []*identity.ProviderUserInfo `json:"providers"`
	} `json:"users"`
	Hash *struct {
		Algorithm        string `json:"algorithm"`
		SignerKey        []byte `json:"signerKey"`
		SaltSeparator    []byte `json:"saltSeparator"`
		Rounds           int    `json:"rounds"`
		MemoryCost       int    `json:"memoryCost"`
		Parallelization  int    `json:"parallelization"`
		BlockSize        int    `json:"blockSize"`
		DerivedKeyLength int    `json:"derivedKeyLength"`
	} `json:"hash"`
}

func (a *App) importUsers(w http.ResponseWriter, r *http.Request) {
	var b importBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	users := make([]*identity.UserToImport, 0, len(b.Users))
	for _, u := range b.Users {
		rec := &identity.UserToImport{
			UID: u.UID, Email: u.Email, EmailVerified: u.EmailVerified,
			DisplayName: u.DisplayName, PhotoURL: u.PhotoURL,
			PhoneNumber: u.PhoneNumber, Disabled: u.Disabled,
			CustomClaims: u.CustomClaims, ProviderData: u.Providers,
			PasswordHash: u.PasswordHash, PasswordSalt: u.PasswordSalt,
			TenantID: u.TenantID,
		}
		if u.CreatedAt != 0 || u.LastLoginAt != 0 {
			rec.Metadata = &identity.UserMetadata{CreationTimestamp: u.CreatedAt, LastLogInTimestamp: u.LastLoginAt}
		}
		users = append(users, rec)
	}
	var hash *identity.HashConfig
	if b.Hash != nil {
		hash = &identity.HashConfig{
			Algorithm: b.Hash.Algorithm, SignerKey: b.Hash.SignerKey,
			SaltSeparator: b.Hash.SaltSeparator, Rounds: b.Hash.Rounds,
			MemoryCost: b.Hash.MemoryCost, Parallelization: b.Hash.Parallelization,
			BlockSize: b.Hash.BlockSize, DerivedKeyLength: b.Hash.DerivedKeyLength,
		}
	}
	res, err := a.sdk.ImportUsers(r.Context(), users, hash)
	if err != nil {
		writeErr(w, err)
		return
	}
	out := map[string]any{
		"successCount": res.SuccessCount,
		"failureCount": res.FailureCount,
	}
	errs := make([]map[string]any, 0, len(res.Errors))
	for _, ie := range res.Errors {
		errs = append(errs, map[string]any{"index": ie.Index, "error": ie.Err.Error()})
	}
	out["errors"] = errs
	writeJSON(w, out, http.StatusOK)
}
