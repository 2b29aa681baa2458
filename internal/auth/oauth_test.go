package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeiKhy/sus/internal/config"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		userID    string
		accountID string
		wantErr   bool
	}{
		{
			name:      "nested identity",
			body:      `{"identity":{"id":"ident!abc","slack_id":"U123"},"id":"top"}`,
			userID:    "ident!abc",
			accountID: "U123",
		},
		{
			name:      "top level",
			body:      `{"id":"top","slack_id":"U999"}`,
			userID:    "top",
			accountID: "U999",
		},
		{
			name:   "numeric id",
			body:   `{"id":12345}`,
			userID: "12345",
		},
		{
			name:      "nested without slack id falls back",
			body:      `{"identity":{"id":"nested"},"slack_id":"U1"}`,
			userID:    "nested",
			accountID: "U1",
		},
		{
			name:    "no id",
			body:    `{"slack_id":"U1","identity":{"id":null}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := ParseProfile([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, identity.UserID)
			assert.Equal(t, tt.accountID, identity.ExternalAccountID)
		})
	}
}

// fakeOAuthServer отдаёт токен на /token и профиль на /userinfo
func fakeOAuthServer(t *testing.T, profile string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *OAuthProvider {
	return NewOAuthProvider(config.OAuthConfig{
		ProviderID:   "hackclub",
		ClientID:     "client",
		ClientSecret: "secret",
		AuthorizeURL: srv.URL + "/authorize",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		RedirectURL:  "http://sus.test/auth/callback",
		Scopes:       []string{"openid", "profile"},
	})
}

func TestOAuthProvider_AuthCodeURL(t *testing.T) {
	srv := fakeOAuthServer(t, `{}`)
	p := newTestProvider(srv)

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)

	assert.Equal(t, "/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile", q.Get("scope"))
	assert.Equal(t, "http://sus.test/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "hackclub", p.ID())
}

func TestOAuthProvider_Identify(t *testing.T) {
	srv := fakeOAuthServer(t, `{"identity":{"id":"ident!xyz","slack_id":"U42"}}`)
	p := newTestProvider(srv)

	identity, err := p.Identify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ident!xyz", identity.UserID)
	assert.Equal(t, "U42", identity.ExternalAccountID)
}

func TestOAuthProvider_Identify_BadCode(t *testing.T) {
	srv := fakeOAuthServer(t, `{"id":"x"}`)
	p := newTestProvider(srv)

	_, err := p.Identify(context.Background(), "bad")
	assert.Error(t, err)
}

func TestOAuthProvider_Identify_ProfileWithoutID(t *testing.T) {
	srv := fakeOAuthServer(t, `{"name":"anon"}`)
	p := newTestProvider(srv)

	_, err := p.Identify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrProfileWithoutID)
}
