// Package testutil carries the shared fixtures for the integration and
// acceptance suites: an in-memory database wired into the config seam, a
// stand-in for the JWT middleware, and seeders for the directory entities.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/middleware"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// OpenTestDB opens a fresh in-memory database, migrates the full schema and
// installs it as the process database. The realtime hub is reset alongside so
// no subscriber leaks between tests.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	services.SetHub(services.NewHub())
	return db
}

// MockAuth simulates a validated JWT for the given Auth0 subject and role claim
func MockAuth(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", "test-access-token")
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

// NewRouter returns a quiet test-mode router
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

var seq int

// SeedUser inserts a user with a unique Auth0 id and email
func SeedUser(t *testing.T, db *gorm.DB, role string, agencyID *uint) models.User {
	t.Helper()
	seq++
	user := models.User{
		Auth0ID:  fmt.Sprintf("auth0|it-user-%d", seq),
		Name:     fmt.Sprintf("Integration User %d", seq),
		Email:    fmt.Sprintf("it-user-%d@example.com", seq),
		Role:     role,
		AgencyID: agencyID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// SeedTrade inserts a trade
func SeedTrade(t *testing.T, db *gorm.DB, name, slug string) models.Trade {
	t.Helper()
	trade := models.Trade{Name: name, Slug: slug}
	require.NoError(t, db.Create(&trade).Error)
	return trade
}

// SeedRegion inserts a region
func SeedRegion(t *testing.T, db *gorm.DB, name, code string) models.Region {
	t.Helper()
	region := models.Region{Name: name, Code: code}
	require.NoError(t, db.Create(&region).Error)
	return region
}

// SeedAgency inserts an active agency covering the given trades and regions
func SeedAgency(t *testing.T, db *gorm.DB, name string, trades []models.Trade, regions []models.Region) models.Agency {
	t.Helper()
	seq++
	agency := models.Agency{
		Name:         name,
		Slug:         fmt.Sprintf("%s-%d", name, seq),
		ContactEmail: fmt.Sprintf("it-agency-%d@example.com", seq),
		IsActive:     true,
		Trades:       trades,
		Regions:      regions,
	}
	require.NoError(t, db.Create(&agency).Error)
	return agency
}

// PerformJSON runs one JSON request against the router
func PerformJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// DecodeJSON parses the recorded body into a generic map
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
