// internal/api/handlers/analytics_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/auth"
	"github.com/yellow444/shelfmetrics/internal/domain"
	"github.com/yellow444/shelfmetrics/internal/refresh"
	"github.com/yellow444/shelfmetrics/internal/service"
)

type AnalyticsHandler struct {
	service   *service.AnalyticsService
	issuer    *auth.TokenIssuer
	identity  *auth.IdentityLog
	refresher *refresh.Refresher
}

func NewAnalyticsHandler(svc *service.AnalyticsService, issuer *auth.TokenIssuer, identity *auth.IdentityLog, refresher *refresh.Refresher) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc, issuer: issuer, identity: identity, refresher: refresher}
}

type itemAnalyticsRequest struct {
	Token      string `json:"token"`
	StartDate  string `json:"StartDate"`
	FinishDate string `json:"FinishDate"`
}

// ItemAnalytics returns the ranked KPI rows for a date range. The finish date
// is inclusive of its full day.
func (h *AnalyticsHandler) ItemAnalytics(c *gin.Context) {
	var req itemAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if !h.authorize(c, req.Token) {
		return
	}

	rows, err := h.service.ItemAnalytics(c.Request.Context(), req.StartDate, req.FinishDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDateRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dates"})
		case errors.Is(err, domain.ErrDatasetNotReady):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data not loaded"})
		default:
			log.Error().Err(err).Msg("item analytics query failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, rows)
}

// Refresh forces a dataset rebuild from the configured source.
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if !h.authorize(c, req.Token) {
		return
	}

	if err := h.refresher.Refresh(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("forced refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// authorize verifies the token and requires the admin identity. Writes the
// error response itself and reports whether the request may proceed.
func (h *AnalyticsHandler) authorize(c *gin.Context, token string) bool {
	subject, err := h.issuer.Verify(token)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "InvalidId"})
		return false
	}

	id, err := h.identity.Lookup(subject)
	if err != nil || id != auth.AdminID {
		c.JSON(http.StatusForbidden, gin.H{"error": "InvalidId"})
		return false
	}
	return true
}
