// pkg/identity/import.go
package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
)

// maxImportUsers is the backend's bulk-write batch cap.
const maxImportUsers = 1000

// UserToImport is one caller-supplied import record. Password material is the
// raw hash and salt bytes produced by the upstream system.
type UserToImport struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	PhoneNumber   string
	Disabled      bool
	Metadata      *UserMetadata
	CustomClaims  map[string]any
	ProviderData  []*ProviderUserInfo
	PasswordHash  []byte
	PasswordSalt  []byte
	TenantID      string
}

// HashConfig describes how the imported password hashes were produced. It is
// call-wide: one config covers the whole batch and is validated once.
type HashConfig struct {
	Algorithm        string
	SignerKey        []byte
	SaltSeparator    []byte
	Rounds           int
	MemoryCost       int
	Parallelization  int
	BlockSize        int
	DerivedKeyLength int
}

// ImportError ties a failed record back to its position in the input batch.
type ImportError struct {
	Index int
	Err   error
}

// UserImportResult reports per-record outcomes of a bulk import. Errors are
// ordered by ascending input index; an index never appears twice.
type UserImportResult struct {
	SuccessCount int
	FailureCount int
	Errors       []*ImportError
}

func validateHashConfig(h *HashConfig) error {
	if h == nil {
		return argErrorf("a hash configuration is required when importing users with password hashes")
	}
	badAlg := func() *Error {
		return &Error{Kind: KindArgument, Code: CodeInvalidHashAlgorithm,
			Message: fmt.Sprintf("unsupported hash algorithm %q", h.Algorithm)}
	}
	requireRounds := func(min, max int) error {
		if h.Rounds < min || h.Rounds > max {
			return argErrorf("%s rounds must be between %d and %d, got %d", h.Algorithm, min, max, h.Rounds)
		}
		return nil
	}
	switch h.Algorithm {
	case "HMAC_SHA512", "HMAC_SHA256", "HMAC_SHA1", "HMAC_MD5":
		if len(h.SignerKey) == 0 {
			return argErrorf("%s requires a signer key", h.Algorithm)
		}
		return nil
	case "MD5":
		return requireRounds(0, 8192)
	case "SHA1", "SHA256", "SHA512":
		return requireRounds(1, 8192)
	case "PBKDF_SHA1", "PBKDF2_SHA256":
		return requireRounds(0, 120000)
	case "SCRYPT":
		if len(h.SignerKey) == 0 {
			return argErrorf("SCRYPT requires a signer key")
		}
		if h.Rounds < 1 || h.Rounds > 8 {
			return argErrorf("SCRYPT rounds must be between 1 and 8, got %d", h.Rounds)
		}
		if h.MemoryCost < 1 || h.MemoryCost > 14 {
			return argErrorf("SCRYPT memory cost must be between 1 and 14, got %d", h.MemoryCost)
		}
		return nil
	case "STANDARD_SCRYPT":
		for _, p := range []struct {
			name string
			v    int
		}{
			{"memory cost", h.MemoryCost},
			{"parallelization", h.Parallelization},
			{"block size", h.BlockSize},
			{"derived key length", h.DerivedKeyLength},
		} {
			if p.v < 0 {
				return argErrorf("STANDARD_SCRYPT %s must not be negative, got %d", p.name, p.v)
			}
		}
		return nil
	case "BCRYPT":
		return nil
	case "":
		return argErrorf("hash algorithm must not be empty")
	default:
		return badAlg()
	}
}

func (h *HashConfig) wireFields() map[string]any {
	out := map[string]any{"hashAlgorithm": h.Algorithm}
	if len(h.SignerKey) > 0 {
		out["signerKey"] = base64.URLEncoding.EncodeToString(h.SignerKey)
	}
	if len(h.SaltSeparator) > 0 {
		out["saltSeparator"] = base64.URLEncoding.EncodeToString(h.SaltSeparator)
	}
	switch h.Algorithm {
	case "SCRYPT", "MD5", "SHA1", "SHA256", "SHA512", "PBKDF_SHA1", "PBKDF2_SHA256":
		out["rounds"] = h.Rounds
	}
	switch h.Algorithm {
	case "SCRYPT", "STANDARD_SCRYPT":
		if h.MemoryCost > 0 {
			out["memoryCost"] = h.MemoryCost
		}
	}
	if h.Algorithm == "STANDARD_SCRYPT" {
		out["parallelization"] = h.Parallelization
		out["blockSize"] = h.BlockSize
		out["dkLen"] = h.DerivedKeyLength
	}
	return out
}

// encodeImportUser runs the fixed per-record validation sequence and encodes
// the record's wire shape. The first failing check wins.
func encodeImportUser(u *UserToImport) (map[string]any, error) {
	if u == nil {
		return nil, argErrorf("import record must not be nil")
	}
	if err := validateUID(u.UID); err != nil {
		return nil, err
	}
	rec := map[string]any{"localId": u.UID}
	if u.Email != "" {
		if err := validateEmail(u.Email); err != nil {
			return nil, err
		}
		rec["email"] = u.Email
	}
	if u.EmailVerified {
		rec["emailVerified"] = true
	}
	if u.PhoneNumber != "" {
		if err := validatePhone(u.PhoneNumber); err != nil {
			return nil, err
		}
		rec["phoneNumber"] = u.PhoneNumber
	}
	if u.DisplayName != "" {
		rec["displayName"] = u.DisplayName
	}
	if u.PhotoURL != "" {
		if err := validateURL("photoURL", u.PhotoURL); err != nil {
			return nil, err
		}
		rec["photoUrl"] = u.PhotoURL
	}
	if u.Disabled {
		rec["disabled"] = true
	}
	if u.Metadata != nil {
		if u.Metadata.CreationTimestamp != 0 {
			if err := validateTimestampMillis("creation timestamp", u.Metadata.CreationTimestamp); err != nil {
				return nil, err
			}
			rec["createdAt"] = u.Metadata.CreationTimestamp
		}
		if u.Metadata.LastLogInTimestamp != 0 {
			if err := validateTimestampMillis("last login timestamp", u.Metadata.LastLogInTimestamp); err != nil {
				return nil, err
			}
			rec["lastLoginAt"] = u.Metadata.LastLogInTimestamp
		}
	}
	if len(u.CustomClaims) > 0 {
		serialized, err := serializeCustomClaims(u.CustomClaims)
		if err != nil {
			return nil, err
		}
		rec["customAttributes"] = serialized
	}
	if len(u.PasswordSalt) > 0 && len(u.PasswordHash) == 0 {
		return nil, argErrorf("record for uid %q has a password salt but no password hash", u.UID)
	}
	if len(u.PasswordHash) > 0 {
		rec["passwordHash"] = base64.URLEncoding.EncodeToString(u.PasswordHash)
		if len(u.PasswordSalt) > 0 {
			rec["salt"] = base64.URLEncoding.EncodeToString(u.PasswordSalt)
		}
	}
	if u.TenantID != "" {
		rec["tenantId"] = u.TenantID
	}
	if len(u.ProviderData) > 0 {
		infos := make([]map[string]any, 0, len(u.ProviderData))
		for _, p := range u.ProviderData {
			if err := validateProviderUserInfo(p); err != nil {
				return nil, err
			}
			info := map[string]any{"providerId": p.ProviderID, "rawId": p.UID}
			if p.Email != "" {
				info["email"] = p.Email
			}
			if p.DisplayName != "" {
				info["displayName"] = p.DisplayName
			}
			if p.PhotoURL != "" {
				info["photoUrl"] = p.PhotoURL
			}
			if p.PhoneNumber != "" {
				info["phoneNumber"] = p.PhoneNumber
			}
			infos = append(infos, info)
		}
		rec["providerUserInfo"] = infos
	}
	return rec, nil
}

// ImportUsers bulk-writes up to 1000 records. Records that cannot possibly
// succeed are failed locally and withheld from the wire call; one bad record
// never aborts the rest. When nothing is network-eligible the call degrades
// to pure local validation and issues no network call at all.
func (c *Client) ImportUsers(ctx context.Context, users []*UserToImport, hash *HashConfig) (*UserImportResult, error) {
	if len(users) > maxImportUsers {
		return nil, &Error{Kind: KindArgument, Code: CodeMaximumUserCountExceeded,
			Message: fmt.Sprintf("at most %d users can be imported per call, got %d", maxImportUsers, len(users))}
	}
	if len(users) == 0 {
		return &UserImportResult{Errors: []*ImportError{}}, nil
	}

	needsHash := false
	for _, u := range users {
		if u != nil && len(u.PasswordHash) > 0 {
			needsHash = true
			break
		}
	}
	if needsHash {
		// Call-wide config: an invalid one fails the whole call before any
		// record is processed.
		if err := validateHashConfig(hash); err != nil {
			return nil, err
		}
	}

	var (
		encoded []map[string]any
		sentIdx []int // position in encoded -> original index
	)
	failures := []*ImportError{}
	for i, u := range users {
		rec, err := encodeImportUser(u)
		if err != nil {
			failures = append(failures, &ImportError{Index: i, Err: err})
			continue
		}
		encoded = append(encoded, rec)
		sentIdx = append(sentIdx, i)
	}

	if len(encoded) == 0 {
		return &UserImportResult{
			FailureCount: len(failures),
			Errors:       failures,
		}, nil
	}

	payload := map[string]any{"users": encoded}
	if needsHash {
		for k, v := range hash.wireFields() {
			payload[k] = v
		}
	}
	resp, err := c.call(ctx, opBatchCreate, nil, payload)
	if err != nil {
		return nil, err
	}

	serverFailed := 0
	for _, e := range collectionOf(resp, "error") {
		pos, ok := e["index"].(float64)
		if !ok || int(pos) < 0 || int(pos) >= len(sentIdx) {
			return nil, protocolErrorf("backend reported an import error for unknown index %v", e["index"])
		}
		serverFailed++
		failures = append(failures, &ImportError{
			Index: sentIdx[int(pos)],
			Err:   c.translator.translateCode(strField(e, "message")),
		})
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	return &UserImportResult{
		SuccessCount: len(encoded) - serverFailed,
		FailureCount: len(failures),
		Errors:       failures,
	}, nil
}
