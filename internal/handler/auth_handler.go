package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/SergeiKhy/sus/internal/auth"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	stateCookieName = "sus_oauth_state"
	stateMaxAge     = 600 // 10 минут на вход у провайдера
)

// IdentityProvider внешний провайдер входа (OAuth)
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*models.Identity, error)
}

type AuthHandler struct {
	provider IdentityProvider
	sessions *auth.SessionManager
	logger   *zap.Logger
}

func NewAuthHandler(provider IdentityProvider, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		sessions: sessions,
		logger:   logger,
	}
}

// Login godoc
// @Summary Start sign-in
// @Description Redirects to the OAuth provider
// @Tags auth
// @Success 302 {object} nil
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := newState()
	if err != nil {
		h.logger.Error("Failed to generate oauth state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, stateMaxAge, "/auth", "", h.sessions.CookieSecure(), true)
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback godoc
// @Summary Finish sign-in
// @Description Exchanges the authorization code and sets the session cookie
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 303 {object} nil
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	expected, err := c.Cookie(stateCookieName)
	state := c.Query("state")
	if err != nil || expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_state",
			Message: "Sign-in request expired or was tampered with",
		})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/auth", "", h.sessions.CookieSecure(), true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_code",
			Message: "Authorization code is required",
		})
		return
	}

	identity, err := h.provider.Identify(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("OAuth sign-in failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "sign_in_failed",
			Message: "Sign-in failed",
		})
		return
	}

	token, _, err := h.sessions.Issue(*identity)
	if err != nil {
		h.logger.Error("Failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
		return
	}

	h.logger.Info("User signed in", zap.String("user_id", identity.UserID))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), token, int(h.sessions.TTL().Seconds()), "/", "", h.sessions.CookieSecure(), true)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout godoc
// @Summary Sign out
// @Description Revokes the current session and clears the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.sessions.TokenFromRequest(c.Request); token != "" {
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			h.logger.Error("Failed to revoke session", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Internal server error",
			})
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), "", -1, "/", "", h.sessions.CookieSecure(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func newState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
