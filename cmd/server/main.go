package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"ims_backend/internal/config"
	"ims_backend/internal/database"
	"ims_backend/internal/middleware"
	"ims_backend/internal/router"
	"ims_backend/internal/services"
	"ims_backend/pkg/telemetry"
	"ims_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", "console")
		return err
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.ConfigureJWT(cfg.SecretKey, cfg.AccessTokenTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelServiceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			utils.LogError(err, "Failed to flush traces")
		}
	}()

	db, err := database.Open(cfg.DBDriver, cfg.DSN(), cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.ApplyMigrations(db); err != nil {
		return err
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.DBDriver})

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.OTelServiceName))
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, db, services.NewBusinessClock(cfg.Location()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "timezone": cfg.BusinessTimezone})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server", map[string]interface{}{"timeout": cfg.ShutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
