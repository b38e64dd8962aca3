package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DEFRA/water-abstraction-ui-sub001/config"
	"github.com/DEFRA/water-abstraction-ui-sub001/handler"
	"github.com/DEFRA/water-abstraction-ui-sub001/middleware"
	"github.com/DEFRA/water-abstraction-ui-sub001/pkg/logger"
	"github.com/DEFRA/water-abstraction-ui-sub001/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	waterClient := service.NewWaterClient(&cfg.Water)
	scanner := service.NewVirusScanner(&cfg.Scanner)

	files := service.NewScratchStore(&cfg.Upload)
	if err := os.MkdirAll(files.Dir(), 0o750); err != nil {
		slog.Error("failed to create scratch directory", "dir", files.Dir(), "error", err)
		os.Exit(1)
	}

	sweeperStop := make(chan struct{})
	files.StartSweeper(10*time.Minute, sweeperStop)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	returnsHandler := handler.NewReturnsHandler(waterClient, scanner, files, cfg)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware
	router.UseRawPath = true

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	router.LoadHTMLGlob("views/*.html")

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	router.GET("/signin", authHandler.GetSignin)
	router.POST("/signin", authHandler.PostSignin)
	router.GET("/signout", authHandler.GetSignout)

	// Protected routes
	returns := router.Group("/returns")
	returns.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		returns.GET("/upload", returnsHandler.GetUploadForm)
		returns.POST("/upload", returnsHandler.PostUpload)
		returns.GET("/processing-upload/:status/:eventId", returnsHandler.GetWaiting)
		returns.GET("/upload-summary/:eventId", returnsHandler.GetSummary)
		returns.GET("/upload-summary/:eventId/:returnId", returnsHandler.GetSummaryReturn)
		returns.POST("/upload-submit/:eventId", returnsHandler.PostSubmit)
		returns.GET("/upload-submitted/:eventId", returnsHandler.GetSubmitted)
		returns.GET("/csv-templates", returnsHandler.GetCSVTemplates)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	close(sweeperStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
