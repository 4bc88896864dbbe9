package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/greencycle/greencycle-server/internal/api"
	"github.com/greencycle/greencycle-server/internal/config"
	"github.com/greencycle/greencycle-server/internal/models"
	"github.com/greencycle/greencycle-server/internal/repository"
	"github.com/greencycle/greencycle-server/internal/service"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router       *gin.Engine
	Repository   repository.Repository
	Service      service.Service
	Config       *config.Config
	JWTSecret    []byte
	DB           *sqlx.DB
	TestUserID   string
	TestUserJWT  string
	AdminUserID  string
	AdminUserJWT string
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Override with test-specific config
	if cfg.Database.DBName == "greencycle" && cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else if cfg.Database.TestDBName == "" {
		// Fallback to hardcoded test DB if not in environment
		cfg.Database.DBName = "greencycle_test"
	}

	// Use a test JWT secret
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-key"
	}

	// Set up database
	db, err := config.SetupDatabase(cfg)
	assert.NoError(t, err, "Failed to set up test database")

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service (accept-all verifier, no metrics so repeated setups
	// don't collide on the Prometheus registry)
	svc := service.NewDefaultService(repo, service.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		AdminEmail:   cfg.Auth.AdminEmail,
		StoreTimeout: cfg.Store.Timeout,
	})

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Create a regular test user and a user holding the allow-listed
	// administrator email
	cleanupTestDatabase(t, repo)
	testUserID, testToken := createTestUser(t, repo, cfg.Auth.JWTSecret, "testuser@example.com", "Test User")
	adminUserID, adminToken := createTestUser(t, repo, cfg.Auth.JWTSecret, cfg.Auth.AdminEmail, "Admin User")

	return &TestContext{
		Router:       router,
		Repository:   repo,
		Service:      svc,
		Config:       cfg,
		JWTSecret:    []byte(cfg.Auth.JWTSecret),
		DB:           db,
		TestUserID:   testUserID,
		TestUserJWT:  testToken,
		AdminUserID:  adminUserID,
		AdminUserJWT: adminToken,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	// Clean up database
	if t.DB != nil {
		cleanupTestDatabase(nil, t.Repository)
		t.DB.Close()
	}
}

// cleanupTestDatabase removes any existing test users and data
func cleanupTestDatabase(t *testing.T, repo repository.Repository) {
	// Execute cleanup SQL directly through the DB connection
	if pgRepo, ok := repo.(*repository.PostgresRepository); ok {
		db := pgRepo.GetDB()

		tables := []string{
			"token_transactions",
			"user_tokens",
			"admin_users",
			"waste_reports",
			"collection_events",
			"rewards",
			"users",
		}

		for _, table := range tables {
			_, err := db.Exec("DELETE FROM " + table)
			if t != nil && err != nil {
				t.Logf("Warning: Failed to clean %s: %v", table, err)
			}
		}
	}
}

// Helper functions
func createTestUser(t *testing.T, repo repository.Repository, jwtSecret, email, name string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Password:  string(hashedPassword),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	// Generate JWT token with the provided secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// CreateReward inserts a reward catalog entry directly for tests
func CreateReward(t *testing.T, repo repository.Repository, name string, cost int64, stock int) string {
	reward := &models.Reward{
		ID:          uuid.New().String(),
		Name:        name,
		Description: "test reward",
		Cost:        cost,
		Stock:       stock,
	}

	err := repo.CreateReward(context.Background(), reward)
	assert.NoError(t, err, "Failed to create test reward")

	return reward.ID
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
