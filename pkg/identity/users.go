// pkg/identity/users.go
package identity

import (
	"context"
	"sort"
)

// GetUser fetches the account addressed by uid.
func (c *Client) GetUser(ctx context.Context, uid string) (*AccountRecord, error) {
	if err := validateUID(uid); err != nil {
		return nil, err
	}
	return c.lookup(ctx, map[string]any{"localId": []string{uid}})
}

// GetUserByEmail fetches the account owning the given email address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*AccountRecord, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	return c.lookup(ctx, map[string]any{"email": []string{email}})
}

// GetUserByPhoneNumber fetches the account owning the given phone number.
func (c *Client) GetUserByPhoneNumber(ctx context.Context, phone string) (*AccountRecord, error) {
	if err := validatePhone(phone); err != nil {
		return nil, err
	}
	return c.lookup(ctx, map[string]any{"phoneNumber": []string{phone}})
}

func (c *Client) lookup(ctx context.Context, payload map[string]any) (*AccountRecord, error) {
	resp, err := c.call(ctx, opLookup, nil, payload)
	if err != nil {
		return nil, err
	}
	users := collectionOf(resp, "users")
	if len(users) == 0 {
		return nil, &Error{Kind: KindBackend, Code: CodeUserNotFound, Message: "no user record found for the given identifier"}
	}
	return parseAccountRecord(users[0]), nil
}

// CreateUser provisions a new account and returns the assigned uid. Fetch the
// full record separately when needed; creation itself is a single wire call.
func (c *Client) CreateUser(ctx context.Context, user *UserToCreate) (string, error) {
	if user == nil {
		user = &UserToCreate{}
	}
	payload, err := buildCreatePayload(user)
	if err != nil {
		return "", err
	}
	resp, err := c.call(ctx, opSignUp, nil, payload)
	if err != nil {
		return "", err
	}
	return strField(resp, "localId"), nil
}

func buildCreatePayload(user *UserToCreate) (map[string]any, error) {
	payload := map[string]any{}
	if user.UID != nil {
		if err := validateUID(*user.UID); err != nil {
			return nil, err
		}
		payload["localId"] = *user.UID
	}
	if user.Email != nil {
		if err := validateEmail(*user.Email); err != nil {
			return nil, err
		}
		payload["email"] = *user.Email
	}
	if user.PhoneNumber != nil {
		if err := validatePhone(*user.PhoneNumber); err != nil {
			return nil, err
		}
		payload["phoneNumber"] = *user.PhoneNumber
	}
	if user.DisplayName != nil {
		if err := validateDisplayName(*user.DisplayName); err != nil {
			return nil, err
		}
		payload["displayName"] = *user.DisplayName
	}
	if user.PhotoURL != nil {
		if err := validateURL("photoURL", *user.PhotoURL); err != nil {
			return nil, err
		}
		payload["photoUrl"] = *user.PhotoURL
	}
	if user.Password != nil {
		if err := validatePassword(*user.Password); err != nil {
			return nil, err
		}
		payload["password"] = *user.Password
	}
	if user.EmailVerified != nil {
		payload["emailVerified"] = *user.EmailVerified
	}
	if user.Disabled != nil {
		payload["disabled"] = *user.Disabled
	}
	return payload, nil
}

// Wire markers for clearable attributes.
const (
	attrDisplayName = "DISPLAY_NAME"
	attrPhotoURL    = "PHOTO_URL"
)

// UpdateUser applies a partial update to the account addressed by uid.
// Untouched fields are omitted from the wire payload, never defaulted.
func (c *Client) UpdateUser(ctx context.Context, uid string, user *UserToUpdate) error {
	if err := validateUID(uid); err != nil {
		return err
	}
	if user == nil {
		return argErrorf("update must not be nil")
	}
	payload, err := buildUpdatePayload(uid, user)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, opUpdateAccount, nil, payload)
	return err
}

func buildUpdatePayload(uid string, user *UserToUpdate) (map[string]any, error) {
	payload := map[string]any{"localId": uid}
	var deleteAttrs []string

	if user.DisplayName != nil {
		if *user.DisplayName == "" {
			deleteAttrs = append(deleteAttrs, attrDisplayName)
		} else {
			payload["displayName"] = *user.DisplayName
		}
	}
	if user.PhotoURL != nil {
		if *user.PhotoURL == "" {
			deleteAttrs = append(deleteAttrs, attrPhotoURL)
		} else {
			if err := validateURL("photoURL", *user.PhotoURL); err != nil {
				return nil, err
			}
			payload["photoUrl"] = *user.PhotoURL
		}
	}
	if user.PhoneNumber != nil {
		if *user.PhoneNumber == "" {
			payload["deleteProvider"] = []string{"phone"}
		} else {
			if err := validatePhone(*user.PhoneNumber); err != nil {
				return nil, err
			}
			payload["phoneNumber"] = *user.PhoneNumber
		}
	}
	if user.Email != nil {
		if err := validateEmail(*user.Email); err != nil {
			return nil, err
		}
		payload["email"] = *user.Email
	}
	if user.Password != nil {
		if err := validatePassword(*user.Password); err != nil {
			return nil, err
		}
		payload["password"] = *user.Password
	}
	if user.EmailVerified != nil {
		payload["emailVerified"] = *user.EmailVerified
	}
	if user.Disabled != nil {
		payload["disableUser"] = *user.Disabled
	}
	if user.CustomClaims != nil {
		serialized, err := serializeCustomClaims(*user.CustomClaims)
		if err != nil {
			return nil, err
		}
		payload["customAttributes"] = serialized
	}
	if user.TokensValidAfterMillis != nil {
		if err := validateTimestampMillis("tokensValidAfter", *user.TokensValidAfterMillis); err != nil {
			return nil, err
		}
		payload["validSince"] = *user.TokensValidAfterMillis / 1000
	}
	if len(deleteAttrs) > 0 {
		sort.Strings(deleteAttrs)
		payload["deleteAttribute"] = deleteAttrs
	}
	return payload, nil
}

// SetCustomUserClaims replaces the account's custom claims. Passing nil
// clears them.
func (c *Client) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	return c.UpdateUser(ctx, uid, &UserToUpdate{CustomClaims: &claims})
}

// RevokeRefreshTokens moves the account's revocation cutoff to nowMillis.
// Artifacts issued before the cutoff fail verification once revocation
// checking is requested.
func (c *Client) RevokeRefreshTokens(ctx context.Context, uid string, nowMillis int64) error {
	return c.UpdateUser(ctx, uid, &UserToUpdate{TokensValidAfterMillis: &nowMillis})
}

// DeleteUser removes the account addressed by uid.
func (c *Client) DeleteUser(ctx context.Context, uid string) error {
	if err := validateUID(uid); err != nil {
		return err
	}
	_, err := c.call(ctx, opDeleteAccount, nil, map[string]any{"localId": uid})
	return err
}

// ListUsers exports one page of accounts. A missing collection in the
// response normalizes to an empty page.
func (c *Client) ListUsers(ctx context.Context, page PageParams) (*ListUsersResult, error) {
	q, err := normalizePage(page, maxExportPageSize, "maxResults", "nextPageToken")
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, opBatchGet, q, nil)
	if err != nil {
		return nil, err
	}
	out := &ListUsersResult{
		Users:         []*AccountRecord{},
		NextPageToken: nextPageTokenOf(resp),
	}
	for _, m := range collectionOf(resp, "users") {
		out.Users = append(out.Users, parseAccountRecord(m))
	}
	return out, nil
}
