// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yellow444/shelfmetrics/internal/api/handlers"
	"github.com/yellow444/shelfmetrics/internal/api/middleware"
	"github.com/yellow444/shelfmetrics/internal/auth"
	"github.com/yellow444/shelfmetrics/internal/refresh"
	"github.com/yellow444/shelfmetrics/internal/service"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Analytics *service.AnalyticsService
	Issuer    *auth.TokenIssuer
	Identity  *auth.IdentityLog
	Refresher *refresh.Refresher
}

func NewRouter(deps Deps, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Issuer, deps.Identity)
		v1.POST("/auth/token", authHandler.GetToken)
		v1.POST("/userid", authHandler.GetUserID)

		analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, deps.Issuer, deps.Identity, deps.Refresher)
		v1.POST("/item-analytics", analyticsHandler.ItemAnalytics)
		v1.POST("/item-analytics/refresh", analyticsHandler.Refresh)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
