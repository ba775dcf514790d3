// pkg/identity/users_types.go
package identity

import (
	"encoding/json"
	"strconv"
)

// UserMetadata carries the backend's lifecycle timestamps, epoch millis.
type UserMetadata struct {
	CreationTimestamp  int64
	LastLogInTimestamp int64
}

// ProviderUserInfo is one federated identity linked to an account.
type ProviderUserInfo struct {
	UID         string
	ProviderID  string
	Email       string
	DisplayName string
	PhotoURL    string
	PhoneNumber string
}

// AccountRecord is the backend-shaped user representation. Built from a
// response, never mutated afterwards.
type AccountRecord struct {
	UID           string
	Email         string
	EmailVerified bool
	PhoneNumber   string
	DisplayName   string
	PhotoURL      string
	Disabled      bool
	TenantID      string
	CustomClaims  map[string]any
	ProviderData  []*ProviderUserInfo
	Metadata      UserMetadata

	// TokensValidAfterMillis is the revocation cutoff: session artifacts
	// issued before it are invalid. Zero means no cutoff recorded.
	TokensValidAfterMillis int64
}

// UserToCreate describes a new account. Nil fields are omitted from the wire
// payload entirely.
type UserToCreate struct {
	UID           *string
	Email         *string
	EmailVerified *bool
	PhoneNumber   *string
	DisplayName   *string
	PhotoURL      *string
	Password      *string
	Disabled      *bool
}

// UserToUpdate describes a partial account update. Every field is tri-state:
// nil leaves the field untouched; a set value updates it; for DisplayName,
// PhotoURL and PhoneNumber a pointer to the empty string clears the field
// (wire: deleteAttribute / deleteProvider entries). CustomClaims pointing at
// an empty map clears all custom claims.
type UserToUpdate struct {
	Email         *string
	EmailVerified *bool
	PhoneNumber   *string
	DisplayName   *string
	PhotoURL      *string
	Password      *string
	Disabled      *bool
	CustomClaims  *map[string]any

	// TokensValidAfterMillis moves the revocation cutoff; wire unit is
	// seconds, millis below full seconds are dropped.
	TokensValidAfterMillis *int64
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func millisField(m map[string]any, key string) int64 {
	// createdAt/lastLoginAt arrive as millisecond strings
	n, _ := strconv.ParseInt(strField(m, key), 10, 64)
	return n
}

func parseAccountRecord(m map[string]any) *AccountRecord {
	rec := &AccountRecord{
		UID:           strField(m, "localId"),
		Email:         strField(m, "email"),
		EmailVerified: boolField(m, "emailVerified"),
		PhoneNumber:   strField(m, "phoneNumber"),
		DisplayName:   strField(m, "displayName"),
		PhotoURL:      strField(m, "photoUrl"),
		Disabled:      boolField(m, "disabled"),
		TenantID:      strField(m, "tenantId"),
		Metadata: UserMetadata{
			CreationTimestamp:  millisField(m, "createdAt"),
			LastLogInTimestamp: millisField(m, "lastLoginAt"),
		},
	}
	// validSince is a second-precision string on the wire
	if sec, err := strconv.ParseInt(strField(m, "validSince"), 10, 64); err == nil {
		rec.TokensValidAfterMillis = sec * 1000
	}
	if raw := strField(m, "customAttributes"); raw != "" {
		claims := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &claims); err == nil && len(claims) > 0 {
			rec.CustomClaims = claims
		}
	}
	for _, p := range collectionOf(m, "providerUserInfo") {
		rec.ProviderData = append(rec.ProviderData, &ProviderUserInfo{
			UID:         strField(p, "rawId"),
			ProviderID:  strField(p, "providerId"),
			Email:       strField(p, "email"),
			DisplayName: strField(p, "displayName"),
			PhotoURL:    strField(p, "photoUrl"),
			PhoneNumber: strField(p, "phoneNumber"),
		})
	}
	return rec
}

// ListUsersResult is one page of exported accounts. Users is never nil;
// NextPageToken is empty when the backend returned the last page.
type ListUsersResult struct {
	Users         []*AccountRecord
	NextPageToken string
}
