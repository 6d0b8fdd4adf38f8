// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/api"
	"github.com/yellow444/shelfmetrics/internal/auth"
	"github.com/yellow444/shelfmetrics/internal/cache"
	"github.com/yellow444/shelfmetrics/internal/config"
	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/engine"
	"github.com/yellow444/shelfmetrics/internal/refresh"
	"github.com/yellow444/shelfmetrics/internal/service"
	"github.com/yellow444/shelfmetrics/internal/source"
	"github.com/yellow444/shelfmetrics/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	src, err := buildSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise data source")
	}

	resultCache, err := cache.NewAnalyticsCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("result cache unavailable, continuing without it")
		resultCache = cache.NewNoopAnalyticsCache()
	}

	store := dataset.NewStore()
	refresher := refresh.New(src, store, resultCache)

	// Initial load. A failure is not fatal: the server starts and reports the
	// dataset as not ready until a refresh succeeds.
	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := refresher.Refresh(startupCtx); err != nil {
		log.Error().Err(err).Msg("initial data refresh failed")
	}
	cancel()

	rootCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	if cfg.Refresh.IntervalSeconds > 0 {
		go refresher.Run(rootCtx, time.Duration(cfg.Refresh.IntervalSeconds)*time.Second)
	}

	eng := engine.New(store)
	analytics := service.NewAnalyticsService(eng, resultCache)
	issuer := auth.NewTokenIssuer(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	identity := auth.NewIdentityLog(cfg.Auth.CredentialsLog)

	router := api.NewRouter(api.Deps{
		Analytics: analytics,
		Issuer:    issuer,
		Identity:  identity,
		Refresher: refresher,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	stopPolling()
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")
}

func buildSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case "", "file":
		return source.NewFileSource(cfg.Source.StockDumpPath, cfg.Source.SalesDumpPath), nil
	case "object":
		return source.NewObjectSource(source.ObjectConfig{
			Endpoint:  cfg.Source.ObjectEndpoint,
			AccessKey: cfg.Source.ObjectAccessKey,
			SecretKey: cfg.Source.ObjectSecretKey,
			Bucket:    cfg.Source.ObjectBucket,
			UseSSL:    cfg.Source.ObjectUseSSL,
			StockKey:  cfg.Source.ObjectStockKey,
			SalesKey:  cfg.Source.ObjectSalesKey,
		})
	case "postgres":
		return source.NewPostgresSource(cfg.Source.DatabaseURL)
	case "drive":
		return source.NewDriveSource(context.Background(), source.DriveConfig{
			CredentialsJSON: cfg.Source.DriveCredentialsJSON,
			FolderID:        cfg.Source.DriveFolderID,
			StockName:       cfg.Source.DriveStockName,
			SalesName:       cfg.Source.DriveSalesName,
		})
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}
