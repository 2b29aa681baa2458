package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

var ErrProfileWithoutID = errors.New("oauth profile has no user id")

// OAuthProvider is a generic authorization-code provider described by its
// authorize, token and userinfo endpoints.
type OAuthProvider struct {
	id          string
	config      *oauth2.Config
	userInfoURL string
}

func NewOAuthProvider(cfg config.OAuthConfig) *OAuthProvider {
	return &OAuthProvider{
		id: cfg.ProviderID,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

func (p *OAuthProvider) ID() string { return p.id }

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Identify exchanges an authorization code and maps the provider profile
// to a local identity.
func (p *OAuthProvider) Identify(ctx context.Context, code string) (*models.Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed reading user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	return ParseProfile(body)
}

// userInfo covers both profile shapes: fields nested under "identity"
// and fields at the top level.
type userInfo struct {
	ID       flexID            `json:"id"`
	SlackID  string            `json:"slack_id"`
	Identity *userInfoIdentity `json:"identity"`
}

type userInfoIdentity struct {
	ID      flexID `json:"id"`
	SlackID string `json:"slack_id"`
}

// ParseProfile maps a userinfo document to an Identity. Nested identity
// fields win over top-level ones.
func ParseProfile(data []byte) (*models.Identity, error) {
	var info userInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed decoding user info: %w", err)
	}

	identity := &models.Identity{
		UserID:            string(info.ID),
		ExternalAccountID: info.SlackID,
	}
	if info.Identity != nil {
		if info.Identity.ID != "" {
			identity.UserID = string(info.Identity.ID)
		}
		if info.Identity.SlackID != "" {
			identity.ExternalAccountID = info.Identity.SlackID
		}
	}

	if identity.UserID == "" {
		return nil, ErrProfileWithoutID
	}

	return identity, nil
}

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(data)
	return nil
}
