package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

func setupAdminRouter(auth0ID, role string) *gin.Engine {
	router := newTestRouter()
	admin := router.Group("/api/v1/admin")
	admin.Use(mockAuthMiddleware(auth0ID, role))
	{
		admin.GET("/labor-requests", AdminListLaborRequests)
		admin.PATCH("/labor-requests/:id/status", AdminUpdateLaborRequestStatus)
		admin.GET("/agency-claims", AdminListAgencyClaims)
		admin.POST("/agency-claims/:id/approve", AdminApproveAgencyClaim)
		admin.POST("/agency-claims/:id/reject", AdminRejectAgencyClaim)
		admin.PUT("/agencies/:id/trades", AdminReplaceAgencyTrades)
	}
	return router
}

func seedAdminLaborRequest(t *testing.T, db *gorm.DB, status string) models.LaborRequest {
	t.Helper()
	ctrlSeq++
	request := models.LaborRequest{
		ProjectName:       fmt.Sprintf("Project %d", ctrlSeq),
		CompanyName:       "Acme Industrial",
		ContactEmail:      "pm@acme.example",
		ContactPhone:      "555-0100",
		Status:            status,
		ConfirmationToken: fmt.Sprintf("admin-test-token-%d", ctrlSeq),
		TokenExpiresAt:    time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&request).Error)
	return request
}

func TestAdminEndpoints_RequireAdminRole(t *testing.T) {
	db := setupControllerTestDB(t)
	user := seedTestUser(t, db, models.RoleContractor, nil)
	router := setupAdminRouter(user.Auth0ID, models.RoleContractor)

	w := performJSON(t, router, "GET", "/api/v1/admin/labor-requests", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = performJSON(t, router, "GET", "/api/v1/admin/agency-claims", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminListLaborRequests_WithStatusFilter(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)

	seedAdminLaborRequest(t, db, models.RequestStatusPending)
	seedAdminLaborRequest(t, db, models.RequestStatusActive)

	w := performJSON(t, router, "GET", "/api/v1/admin/labor-requests", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeResponse(t, w)["data"], 2)

	w = performJSON(t, router, "GET", "/api/v1/admin/labor-requests?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, models.RequestStatusActive, data[0].(map[string]interface{})["status"])
}

func TestAdminUpdateLaborRequestStatus(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)
	request := seedAdminLaborRequest(t, db, models.RequestStatusActive)

	path := fmt.Sprintf("/api/v1/admin/labor-requests/%d/status", request.ID)
	w := performJSON(t, router, "PATCH", path, gin.H{"status": "fulfilled"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.LaborRequest
	require.NoError(t, db.First(&stored, request.ID).Error)
	assert.Equal(t, models.RequestStatusFulfilled, stored.Status)

	// Unknown statuses are rejected by binding
	w = performJSON(t, router, "PATCH", path, gin.H{"status": "archived"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	// Unknown request ids are a 404
	w = performJSON(t, router, "PATCH", "/api/v1/admin/labor-requests/9999/status", gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", errorCode(t, w))
}

func seedPendingClaim(t *testing.T, db *gorm.DB) (models.Agency, models.User, models.AgencyClaim) {
	t.Helper()
	agency := seedTestAgency(t, db, "Claimable Crews", nil, nil)
	claimant := seedTestUser(t, db, models.RoleContractor, nil)
	claim := models.AgencyClaim{
		AgencyID: agency.ID,
		UserID:   claimant.ID,
		Status:   models.ClaimStatusPending,
	}
	require.NoError(t, db.Create(&claim).Error)
	return agency, claimant, claim
}

func TestAdminApproveAgencyClaim_LinksClaimantToAgency(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)
	agency, claimant, claim := seedPendingClaim(t, db)

	w := performJSON(t, router, "POST", fmt.Sprintf("/api/v1/admin/agency-claims/%d/approve", claim.ID), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var storedClaim models.AgencyClaim
	require.NoError(t, db.First(&storedClaim, claim.ID).Error)
	assert.Equal(t, models.ClaimStatusApproved, storedClaim.Status)
	require.NotNil(t, storedClaim.ReviewedByUserID)
	assert.Equal(t, admin.ID, *storedClaim.ReviewedByUserID)
	assert.NotNil(t, storedClaim.ReviewedAt)

	var storedAgency models.Agency
	require.NoError(t, db.First(&storedAgency, agency.ID).Error)
	assert.True(t, storedAgency.IsClaimed)
	require.NotNil(t, storedAgency.ClaimedByUserID)
	assert.Equal(t, claimant.ID, *storedAgency.ClaimedByUserID)

	// The claimant becomes an agency-side user of that agency
	var storedUser models.User
	require.NoError(t, db.First(&storedUser, claimant.ID).Error)
	assert.Equal(t, models.RoleAgency, storedUser.Role)
	require.NotNil(t, storedUser.AgencyID)
	assert.Equal(t, agency.ID, *storedUser.AgencyID)
}

func TestAdminRejectAgencyClaim_NoteRequired(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)
	agency, claimant, claim := seedPendingClaim(t, db)

	path := fmt.Sprintf("/api/v1/admin/agency-claims/%d/reject", claim.ID)

	w := performJSON(t, router, "POST", path, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = performJSON(t, router, "POST", path, gin.H{"note": "Document does not match the agency"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var storedClaim models.AgencyClaim
	require.NoError(t, db.First(&storedClaim, claim.ID).Error)
	assert.Equal(t, models.ClaimStatusRejected, storedClaim.Status)
	require.NotNil(t, storedClaim.ReviewNote)
	assert.Equal(t, "Document does not match the agency", *storedClaim.ReviewNote)

	// Rejection leaves the agency and the claimant untouched
	var storedAgency models.Agency
	require.NoError(t, db.First(&storedAgency, agency.ID).Error)
	assert.False(t, storedAgency.IsClaimed)

	var storedUser models.User
	require.NoError(t, db.First(&storedUser, claimant.ID).Error)
	assert.Equal(t, models.RoleContractor, storedUser.Role)
}

func TestAdminAgencyClaim_ReviewIsFinal(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)
	_, _, claim := seedPendingClaim(t, db)

	w := performJSON(t, router, "POST", fmt.Sprintf("/api/v1/admin/agency-claims/%d/approve", claim.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Neither approving nor rejecting a reviewed claim is allowed
	w = performJSON(t, router, "POST", fmt.Sprintf("/api/v1/admin/agency-claims/%d/approve", claim.ID), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CLAIM_ALREADY_REVIEWED", errorCode(t, w))

	w = performJSON(t, router, "POST", fmt.Sprintf("/api/v1/admin/agency-claims/%d/reject", claim.ID), gin.H{"note": "too late"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CLAIM_ALREADY_REVIEWED", errorCode(t, w))
}

func TestAdminListAgencyClaims_PresignsDocuments(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)

	_, _, claim := seedPendingClaim(t, db)

	mockS3 := services.NewMockS3Service()
	mockS3.SetAsMockForTesting()
	defer services.SetS3Service(nil)

	// Give the claim a stored document
	header := newUploadedDocument(t, "license.pdf", []byte("%PDF-1.4"))
	s3Key, err := mockS3.UploadClaimDocument(header)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.AgencyClaim{}).
		Where("id = ?", claim.ID).
		Update("document_s3_key", s3Key).Error)

	w := performJSON(t, router, "GET", "/api/v1/admin/agency-claims", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	url, ok := row["document_url"].(string)
	require.True(t, ok, "expected a presigned document_url")
	assert.Contains(t, url, s3Key)
}

func TestAdminReplaceAgencyTrades_FullReplace(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := seedTestUser(t, db, models.RoleAdmin, nil)
	router := setupAdminRouter(admin.Auth0ID, models.RoleAdmin)

	electrician := seedTestTrade(t, db, "Electrician", "electrician")
	pipefitter := seedTestTrade(t, db, "Pipefitter", "pipefitter")
	welder := seedTestTrade(t, db, "Welder", "welder")
	agency := seedTestAgency(t, db, "Swap Crews", []models.Trade{electrician}, nil)

	path := fmt.Sprintf("/api/v1/admin/agencies/%d/trades", agency.ID)
	w := performJSON(t, router, "PUT", path, gin.H{"tradeIds": []uint{pipefitter.ID, welder.ID}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Agency
	require.NoError(t, db.Preload("Trades").First(&stored, agency.ID).Error)
	require.Len(t, stored.Trades, 2)
	slugs := []string{stored.Trades[0].Slug, stored.Trades[1].Slug}
	assert.ElementsMatch(t, []string{"pipefitter", "welder"}, slugs)

	// Unknown trade ids reject the whole replace
	w = performJSON(t, router, "PUT", path, gin.H{"tradeIds": []uint{9999}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TRADE_NOT_FOUND", errorCode(t, w))
}
