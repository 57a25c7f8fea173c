package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/hashlink/internal/middleware"
	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/SergeiKhy/hashlink/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgURLRequired    = "URL is required"
	msgNotFound       = "Short URL not found"
	msgCodeGeneration = "Failed to generate unique short code"
)

type LinkHandler struct {
	linkService     service.LinkService
	redirectService service.RedirectService
	logger          *zap.Logger
}

func NewLinkHandler(linkService service.LinkService, redirectService service.RedirectService, logger *zap.Logger) *LinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkHandler{
		linkService:     linkService,
		redirectService: redirectService,
		logger:          logger,
	}
}

type ShortenResponse struct {
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	ShortCode   string `json:"short_code"`
}

type StatsListResponse struct {
	URLs  []models.LinkStats `json:"urls"`
	Total int                `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Shorten godoc
// @Summary Shorten a URL
// @Description Returns the existing short code for the URL or creates one
// @Tags links
// @Accept json
// @Produce json
// @Param request body models.ShortenInput true "URL to shorten"
// @Success 200 {object} ShortenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /shorten [post]
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req models.ShortenInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgURLRequired})
		return
	}

	link, err := h.linkService.Shorten(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgURLRequired})
		case errors.Is(err, service.ErrCodeGenerationExhausted):
			h.logError(c, "Failed to generate short code", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgCodeGeneration})
		default:
			h.logError(c, "Failed to shorten URL", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, ShortenResponse{
		OriginalURL: link.OriginalURL,
		ShortURL:    hostURL(c) + link.ShortCode,
		ShortCode:   link.ShortCode,
	})
}

// Redirect godoc
// @Summary Redirect to original URL
// @Description Counts a click and redirects to the original URL
// @Tags links
// @Produce json
// @Param code path string true "Short code"
// @Success 302 {object} nil
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	originalURL, err := h.redirectService.Resolve(c.Request.Context(), code)
	if err != nil {
		h.writeLookupError(c, code, err)
		return
	}

	c.Redirect(http.StatusFound, originalURL)
}

// GetStats godoc
// @Summary Get statistics for a short link
// @Tags stats
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} models.LinkStats
// @Failure 404 {object} ErrorResponse
// @Router /stats/{code} [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	code := c.Param("code")

	link, err := h.redirectService.Stats(c.Request.Context(), code)
	if err != nil {
		h.writeLookupError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, link.Stats())
}

// ListStats godoc
// @Summary Get statistics for all short links
// @Description Links are ordered newest first
// @Tags stats
// @Produce json
// @Success 200 {object} StatsListResponse
// @Failure 500 {object} ErrorResponse
// @Router /stats [get]
func (h *LinkHandler) ListStats(c *gin.Context) {
	links, err := h.redirectService.StatsAll(c.Request.Context())
	if err != nil {
		h.logError(c, "Failed to list links", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	base := hostURL(c)
	stats := make([]models.LinkStats, 0, len(links))
	for i := range links {
		entry := links[i].Stats()
		entry.ShortURL = base + entry.ShortCode
		stats = append(stats, entry)
	}

	c.JSON(http.StatusOK, StatsListResponse{URLs: stats, Total: len(stats)})
}

func (h *LinkHandler) writeLookupError(c *gin.Context, code string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.logger.Debug("Short code not found", zap.String("code", code))
		c.JSON(http.StatusNotFound, ErrorResponse{Error: msgNotFound})
		return
	}

	h.logError(c, "Lookup failed", err, zap.String("code", code))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func (h *LinkHandler) logError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	h.logger.Error(msg, fields...)
	c.Error(err)
}

// hostURL returns the scheme and host the request was made to, with a
// trailing slash.
func hostURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host + "/"
}
