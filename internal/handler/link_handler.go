package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/SergeiKhy/sus/internal/middleware"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/SergeiKhy/sus/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type CreateLinkRequest struct {
	URL        string  `json:"url"`
	CustomSlug *string `json:"customSlug,omitempty"`
}

type CreateLinkResponse struct {
	ID          string    `json:"id"`
	ShortCode   string    `json:"shortCode"`
	ShortURL    string    `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListLinksResponse struct {
	Links []models.Link `json:"links"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink godoc
// @Summary Create a short link
// @Description Create a short link owned by the signed-in user
// @Tags links
// @Accept json
// @Produce json
// @Param request body CreateLinkRequest true "Link creation request"
// @Success 201 {object} CreateLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_url",
			Message: "URL is required",
		})
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), &models.CreateLinkInput{
		OwnerUserID:       identity.UserID,
		OriginalURL:       req.URL,
		CustomSlug:        req.CustomSlug,
		ExternalAccountID: identity.AccountID(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateLinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    h.baseURL + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		CreatedAt:   link.CreatedAt,
	})
}

// ListLinks godoc
// @Summary List own links
// @Tags links
// @Produce json
// @Success 200 {object} ListLinksResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	links, err := h.service.ListLinks(c.Request.Context(), identity.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if links == nil {
		links = []models.Link{}
	}

	c.JSON(http.StatusOK, ListLinksResponse{Links: links})
}

// DeleteLink godoc
// @Summary Delete own link
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteLink(c.Request.Context(), c.Param("id"), identity.UserID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStats godoc
// @Summary Get click statistics of own link
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} models.LinkStats
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id}/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		h.respondError(c, service.ErrUnauthorized)
		return
	}

	stats, err := h.service.GetLinkStats(c.Request.Context(), c.Param("id"), identity.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Counts the click and redirects to the original URL
// @Tags links
// @Produce html
// @Param code path string true "Short code"
// @Success 307 {object} nil
// @Failure 404 {string} string "Not found page"
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			NotFoundPage(c)
			return
		}
		h.logger.Error("Failed to resolve short code", zap.String("short_code", code), zap.Error(err))
		ErrorPage(c)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusTemporaryRedirect, originalURL)
}

// respondError переводит ошибки сервиса в HTTP-ответ
func (h *LinkHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrSlugTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "slug_taken",
			Message: "This custom slug is already taken",
		})
	case errors.Is(err, service.ErrAllocationExhausted):
		h.logger.Error("Short code allocation exhausted")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "allocation_exhausted",
			Message: "Failed to generate unique short code",
		})
	case errors.Is(err, service.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found or unauthorized",
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Unauthorized",
		})
	default:
		h.logger.Error("Link operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}
}
