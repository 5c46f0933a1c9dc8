package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
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

// setupControllerTestDB creates an in-memory database, installs it as the
// process database and resets the realtime hub
func setupControllerTestDB(t *testing.T) *gorm.DB {
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

// mockAuthMiddleware simulates a validated JWT for the given Auth0 subject
// and role claim
func mockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
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

// newTestRouter returns a quiet router for handler tests
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

var ctrlSeq int

// seedTestUser inserts a user with a unique Auth0 id and email
func seedTestUser(t *testing.T, db *gorm.DB, role string, agencyID *uint) models.User {
	t.Helper()
	ctrlSeq++
	user := models.User{
		Auth0ID:  fmt.Sprintf("auth0|ctrl-test-%d", ctrlSeq),
		Name:     fmt.Sprintf("Ctrl Test User %d", ctrlSeq),
		Email:    fmt.Sprintf("ctrl-test-%d@example.com", ctrlSeq),
		Role:     role,
		AgencyID: agencyID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedTestAgency inserts an active agency with the given trades and regions
func seedTestAgency(t *testing.T, db *gorm.DB, name string, trades []models.Trade, regions []models.Region) models.Agency {
	t.Helper()
	ctrlSeq++
	agency := models.Agency{
		Name:         name,
		Slug:         fmt.Sprintf("%s-%d", name, ctrlSeq),
		ContactEmail: fmt.Sprintf("agency-%d@example.com", ctrlSeq),
		IsActive:     true,
		Trades:       trades,
		Regions:      regions,
	}
	require.NoError(t, db.Create(&agency).Error)
	return agency
}

func seedTestTrade(t *testing.T, db *gorm.DB, name, slug string) models.Trade {
	t.Helper()
	trade := models.Trade{Name: name, Slug: slug}
	require.NoError(t, db.Create(&trade).Error)
	return trade
}

func seedTestRegion(t *testing.T, db *gorm.DB, name, code string) models.Region {
	t.Helper()
	region := models.Region{Name: name, Code: code}
	require.NoError(t, db.Create(&region).Error)
	return region
}

// performJSON runs one JSON request against the router
func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
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

// decodeResponse parses the recorded JSON body into a generic map
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// newUploadedDocument builds a multipart file header the way a form upload
// would deliver it
func newUploadedDocument(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("document", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("document")
	require.NoError(t, err)
	return header
}

// errorCode digs the error code out of the standard error envelope
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeResponse(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}
