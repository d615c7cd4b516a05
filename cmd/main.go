package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"hostel-portal/internal/client"
	"hostel-portal/internal/config"
	"hostel-portal/internal/handler"
	"hostel-portal/internal/service"
	"hostel-portal/internal/session"
	"hostel-portal/pkg/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warnf("auth.jwt_secret is empty; every API request will be rejected")
	}

	api := client.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	widgetService := service.NewWidgetService(api, cfg.Widget, cfg.Session)
	taskService := service.NewTaskService(api)
	profileService := service.NewProfileService(api, cfg.Profile.MaxPictureBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	middleware := handler.NewMiddleware(session.NewTokenParser(cfg.Auth.JWTSecret))

	cleanupDone := make(chan struct{})
	go func() {
		widgetService.Run(ctx, cfg.Session.CleanupInterval)
		close(cleanupDone)
	}()
	go middleware.Run(ctx, cfg.Session.CleanupInterval, cfg.Session.TTL)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(cfg, handler.Handlers{
		Middleware: middleware,
		Widget:     handler.NewWidgetHandler(widgetService),
		Task:       handler.NewTaskHandler(taskService),
		Profile:    handler.NewProfileHandler(profileService),
		Menu:       handler.NewMenuHandler(),
	})

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Infof("Server listening on port %d, backend %s", cfg.Server.Port, cfg.Backend.BaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
		server.Close()
	}
	<-cleanupDone
	logger.Info("Server stopped")
}
