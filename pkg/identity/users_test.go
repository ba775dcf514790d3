package identity

import (
	"context"
	"net/http"
	"testing"
)

func TestGetUser(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"users": []any{map[string]any{
			"localId":       "u1",
			"email":         "u1@example.com",
			"emailVerified": true,
			"photoUrl":      "https://example.com/u1.png",
			"validSince":    "1700000000",
			"createdAt":     "1690000000000",
			"customAttributes": `{"admin":true}`,
		}},
	})
	c := newTestClient(t, srv)

	user, err := c.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if cap.method != http.MethodPost || cap.path != "/v1/projects/proj-1/accounts:lookup" {
		t.Fatalf("wire call = %s %s", cap.method, cap.path)
	}
	ids, _ := cap.body["localId"].([]any)
	if len(ids) != 1 || ids[0] != "u1" {
		t.Fatalf("lookup payload localId = %v", cap.body["localId"])
	}
	if user.UID != "u1" || user.Email != "u1@example.com" || !user.EmailVerified {
		t.Fatalf("record = %+v", user)
	}
	if user.PhotoURL != "https://example.com/u1.png" {
		t.Fatalf("photo url = %q", user.PhotoURL)
	}
	if user.TokensValidAfterMillis != 1700000000000 {
		t.Fatalf("cutoff = %d, want seconds scaled to millis", user.TokensValidAfterMillis)
	}
	if user.Metadata.CreationTimestamp != 1690000000000 {
		t.Fatalf("createdAt = %d", user.Metadata.CreationTimestamp)
	}
	if v, ok := user.CustomClaims["admin"].(bool); !ok || !v {
		t.Fatalf("custom claims = %v", user.CustomClaims)
	}
}

func TestGetUserNotFound(t *testing.T) {
	// The lookup endpoint reports absence with an empty collection, not an
	// error envelope.
	_, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	_, err := c.GetUser(context.Background(), "ghost")
	if !IsUserNotFound(err) {
		t.Fatalf("err = %v, want user-not-found", err)
	}
}

func TestGetUserByEmailAndPhone(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"users": []any{map[string]any{"localId": "u1"}},
	})
	c := newTestClient(t, srv)

	if _, err := c.GetUserByEmail(context.Background(), "u1@example.com"); err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	emails, _ := cap.body["email"].([]any)
	if len(emails) != 1 || emails[0] != "u1@example.com" {
		t.Fatalf("payload email = %v", cap.body["email"])
	}

	if _, err := c.GetUserByPhoneNumber(context.Background(), "+15551234567"); err != nil {
		t.Fatalf("GetUserByPhoneNumber: %v", err)
	}
	phones, _ := cap.body["phoneNumber"].([]any)
	if len(phones) != 1 || phones[0] != "+15551234567" {
		t.Fatalf("payload phoneNumber = %v", cap.body["phoneNumber"])
	}
}

func TestGetUserRejectsBadInputLocally(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if _, err := c.GetUser(context.Background(), ""); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.GetUserByEmail(context.Background(), "not-an-email"); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.GetUserByPhoneNumber(context.Background(), "5551234567"); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if cap.Calls() != 0 {
		t.Fatalf("invalid input reached the network, %d calls", cap.Calls())
	}
}

func TestCreateUser(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "assigned-1"})
	c := newTestClient(t, srv)

	uid, err := c.CreateUser(context.Background(), &UserToCreate{
		Email:    String("new@example.com"),
		PhotoURL: String("https://example.com/p.png"),
		Password: String("secret-pass"),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if uid != "assigned-1" {
		t.Fatalf("uid = %q", uid)
	}
	if cap.path != "/v1/projects/proj-1/accounts" {
		t.Fatalf("path = %q", cap.path)
	}
	// The wire field is photoUrl, not the caller-facing photoURL.
	if _, ok := cap.body["photoUrl"]; !ok {
		t.Fatalf("payload missing photoUrl: %v", cap.body)
	}
	if _, ok := cap.body["photoURL"]; ok {
		t.Fatal("payload carries the caller-facing field name")
	}
	if _, ok := cap.body["localId"]; ok {
		t.Fatal("payload carries a localId the caller never set")
	}
}

func TestCreateUserValidation(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "x"})
	c := newTestClient(t, srv)

	tests := []struct {
		name string
		user *UserToCreate
	}{
		{name: "bad email", user: &UserToCreate{Email: String("nope")}},
		{name: "bad phone", user: &UserToCreate{PhoneNumber: String("12345")}},
		{name: "short password", user: &UserToCreate{Password: String("abc")}},
		{name: "bad photo url", user: &UserToCreate{PhotoURL: String("example.com/p.png")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.CreateUser(context.Background(), tt.user); !IsInvalidArgument(err) {
				t.Fatalf("err = %v", err)
			}
		})
	}
	if cap.Calls() != 0 {
		t.Fatalf("invalid input reached the network, %d calls", cap.Calls())
	}
}

func TestUpdateUserClearsFields(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "u1"})
	c := newTestClient(t, srv)

	err := c.UpdateUser(context.Background(), "u1", &UserToUpdate{
		DisplayName: String(""),
		PhotoURL:    String(""),
		PhoneNumber: String(""),
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if cap.path != "/v1/projects/proj-1/accounts:update" {
		t.Fatalf("path = %q", cap.path)
	}
	attrs, _ := cap.body["deleteAttribute"].([]any)
	if len(attrs) != 2 || attrs[0] != "DISPLAY_NAME" || attrs[1] != "PHOTO_URL" {
		t.Fatalf("deleteAttribute = %v", cap.body["deleteAttribute"])
	}
	provs, _ := cap.body["deleteProvider"].([]any)
	if len(provs) != 1 || provs[0] != "phone" {
		t.Fatalf("deleteProvider = %v", cap.body["deleteProvider"])
	}
	for _, k := range []string{"displayName", "photoUrl", "phoneNumber"} {
		if _, ok := cap.body[k]; ok {
			t.Fatalf("cleared field %q still present in payload", k)
		}
	}
}

func TestUpdateUserSetsFields(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "u1"})
	c := newTestClient(t, srv)

	claims := map[string]any{"role": "editor"}
	err := c.UpdateUser(context.Background(), "u1", &UserToUpdate{
		DisplayName:  String("New Name"),
		Disabled:     Bool(true),
		CustomClaims: &claims,
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if cap.body["displayName"] != "New Name" {
		t.Fatalf("displayName = %v", cap.body["displayName"])
	}
	// Disabled travels as disableUser on this endpoint.
	if v, ok := cap.body["disableUser"].(bool); !ok || !v {
		t.Fatalf("disableUser = %v", cap.body["disableUser"])
	}
	if cap.body["customAttributes"] != `{"role":"editor"}` {
		t.Fatalf("customAttributes = %v", cap.body["customAttributes"])
	}
}

func TestRevokeRefreshTokens(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "u1"})
	c := newTestClient(t, srv)

	// Sub-second precision is dropped on the wire.
	if err := c.RevokeRefreshTokens(context.Background(), "u1", 1700000001500); err != nil {
		t.Fatalf("RevokeRefreshTokens: %v", err)
	}
	if v, ok := cap.body["validSince"].(float64); !ok || int64(v) != 1700000001 {
		t.Fatalf("validSince = %v", cap.body["validSince"])
	}
}

func TestSetCustomUserClaimsNilClears(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{"localId": "u1"})
	c := newTestClient(t, srv)

	if err := c.SetCustomUserClaims(context.Background(), "u1", nil); err != nil {
		t.Fatalf("SetCustomUserClaims: %v", err)
	}
	if cap.body["customAttributes"] != "{}" {
		t.Fatalf("customAttributes = %v", cap.body["customAttributes"])
	}
}

func TestDeleteUser(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if err := c.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if cap.path != "/v1/projects/proj-1/accounts:delete" {
		t.Fatalf("path = %q", cap.path)
	}
	if cap.body["localId"] != "u1" {
		t.Fatalf("payload = %v", cap.body)
	}
}

func TestListUsersDefaults(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	res, err := c.ListUsers(context.Background(), PageParams{})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if cap.method != http.MethodGet || cap.path != "/v1/projects/proj-1/accounts:batchGet" {
		t.Fatalf("wire call = %s %s", cap.method, cap.path)
	}
	if cap.rawQuery != "maxResults=1000" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
	if res.Users == nil || len(res.Users) != 0 {
		t.Fatalf("empty export not normalized: %+v", res.Users)
	}
	if res.NextPageToken != "" {
		t.Fatalf("next page token = %q", res.NextPageToken)
	}
}

func TestListUsersPage(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{
		"users":         []any{map[string]any{"localId": "a"}, map[string]any{"localId": "b"}},
		"nextPageToken": "page-2",
	})
	c := newTestClient(t, srv)

	res, err := c.ListUsers(context.Background(), PageParams{MaxResults: 2, PageToken: String("page-1")})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if cap.rawQuery != "maxResults=2&nextPageToken=page-1" {
		t.Fatalf("query = %q", cap.rawQuery)
	}
	if len(res.Users) != 2 || res.Users[0].UID != "a" || res.Users[1].UID != "b" {
		t.Fatalf("users = %+v", res.Users)
	}
	if res.NextPageToken != "page-2" {
		t.Fatalf("next page token = %q", res.NextPageToken)
	}
}

func TestListUsersRejectsBadPages(t *testing.T) {
	cap, srv := captureServer(t, http.StatusOK, map[string]any{})
	c := newTestClient(t, srv)

	if _, err := c.ListUsers(context.Background(), PageParams{MaxResults: 1001}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.ListUsers(context.Background(), PageParams{PageToken: String("")}); !IsInvalidArgument(err) {
		t.Fatalf("err = %v", err)
	}
	if cap.Calls() != 0 {
		t.Fatalf("invalid page selection reached the network, %d calls", cap.Calls())
	}
}
