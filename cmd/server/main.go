package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/greencycle/greencycle-server/internal/api"
	"github.com/greencycle/greencycle-server/internal/config"
	"github.com/greencycle/greencycle-server/internal/monitoring"
	"github.com/greencycle/greencycle-server/internal/repository"
	"github.com/greencycle/greencycle-server/internal/service"
	"github.com/greencycle/greencycle-server/internal/utils"
	"github.com/greencycle/greencycle-server/internal/verify"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger := utils.NewLogger()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Error("Failed to set up database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Image verification collaborator; with no endpoint configured every
	// report is accepted
	var verifier verify.Verifier = verify.AcceptAll()
	if cfg.Verifier.URL != "" {
		verifier = verify.NewHTTPVerifier(cfg.Verifier.URL)
	}

	metrics := monitoring.NewMetricsCollector()

	// Create service
	svc := service.NewDefaultService(repo, service.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		AdminEmail:   cfg.Auth.AdminEmail,
		Verifier:     verifier,
		Logger:       logger,
		Metrics:      metrics,
		StoreTimeout: cfg.Store.Timeout,
	})

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()
	router.Use(metrics.Middleware())

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)
	router.GET("/metrics", metrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Error("Failed to start server: %v", err)
	}
}
