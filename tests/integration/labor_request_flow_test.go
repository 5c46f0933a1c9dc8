package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink-api/controllers"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/tests/testutil"
)

// publicRouter carries the endpoints contractors hit without an account
func publicRouter() *gin.Engine {
	router := testutil.NewRouter()
	v1 := router.Group("/api/v1")
	v1.GET("/agencies", controllers.ListAgencies)
	v1.POST("/labor-requests", controllers.SubmitLaborRequest)
	v1.POST("/labor-requests/confirm", controllers.ConfirmLaborRequest)
	return router
}

// agencyRouter carries the inbox endpoints as seen by one authenticated staffer
func agencyRouter(auth0ID string) *gin.Engine {
	router := testutil.NewRouter()
	authed := router.Group("/api/v1")
	authed.Use(testutil.MockAuth(auth0ID, models.RoleAgency))
	authed.GET("/agencies/:id/notifications", controllers.ListAgencyNotifications)
	authed.POST("/labor-requests/notifications/:id/view", controllers.ViewNotification)
	authed.POST("/labor-requests/notifications/:id/respond", controllers.RespondNotification)
	return router
}

// TestLaborRequestLifecycle walks the whole demand-side flow: a contractor
// submits a request, the matched agency works its inbox, the contractor
// confirms by token, and an admin closes the request out.
func TestLaborRequestLifecycle(t *testing.T) {
	db := testutil.OpenTestDB(t)

	electrician := testutil.SeedTrade(t, db, "Electrician", "electrician")
	texas := testutil.SeedRegion(t, db, "Texas", "TX")
	agency := testutil.SeedAgency(t, db, "Lone Star Staffing", []models.Trade{electrician}, []models.Region{texas})
	staffer := testutil.SeedUser(t, db, models.RoleAgency, &agency.ID)

	public := publicRouter()

	// 1. Submission matches the agency and creates its notification
	w := testutil.PerformJSON(t, public, "POST", "/api/v1/labor-requests", gin.H{
		"projectName":  "Substation upgrade",
		"companyName":  "Acme Industrial",
		"contactEmail": "pm@acme.example",
		"contactPhone": "5550100123",
		"crafts": []gin.H{{
			"tradeId":         electrician.ID,
			"regionId":        texas.ID,
			"experienceLevel": "journeyman",
			"workerCount":     6,
			"startDate":       time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
			"durationDays":    90,
			"hoursPerWeek":    50,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	submission := testutil.DecodeJSON(t, w)
	assert.EqualValues(t, 1, submission["totalMatches"])
	token := submission["confirmationToken"].(string)

	// 2. The staffer finds the notification in the agency inbox
	inbox := agencyRouter(staffer.Auth0ID)
	w = testutil.PerformJSON(t, inbox, "GET", fmt.Sprintf("/api/v1/agencies/%d/notifications", agency.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	notifications := testutil.DecodeJSON(t, w)["data"].([]interface{})
	require.Len(t, notifications, 1)
	notificationID := uint(notifications[0].(map[string]interface{})["id"].(float64))

	// 3. Viewing then responding drives the notification lifecycle forward
	w = testutil.PerformJSON(t, inbox, "POST",
		fmt.Sprintf("/api/v1/labor-requests/notifications/%d/view", notificationID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.PerformJSON(t, inbox, "POST",
		fmt.Sprintf("/api/v1/labor-requests/notifications/%d/respond", notificationID),
		gin.H{"interested": true})
	require.Equal(t, http.StatusOK, w.Code)

	var notification models.Notification
	require.NoError(t, db.First(&notification, notificationID).Error)
	assert.Equal(t, models.NotificationStatusResponded, notification.Status)
	assert.NotNil(t, notification.ViewedAt)
	require.NotNil(t, notification.Interested)
	assert.True(t, *notification.Interested)

	// 4. The contractor confirms the request with the emailed token
	w = testutil.PerformJSON(t, public, "POST", "/api/v1/labor-requests/confirm", gin.H{"token": token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var request models.LaborRequest
	require.NoError(t, db.First(&request).Error)
	assert.Equal(t, models.RequestStatusActive, request.Status)

	// 5. An admin marks the request fulfilled
	admin := testutil.SeedUser(t, db, models.RoleAdmin, nil)
	adminRouter := testutil.NewRouter()
	adminGroup := adminRouter.Group("/api/v1/admin")
	adminGroup.Use(testutil.MockAuth(admin.Auth0ID, models.RoleAdmin))
	adminGroup.PATCH("/labor-requests/:id/status", controllers.AdminUpdateLaborRequestStatus)

	w = testutil.PerformJSON(t, adminRouter, "PATCH",
		fmt.Sprintf("/api/v1/admin/labor-requests/%d/status", request.ID),
		gin.H{"status": "fulfilled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, db.First(&request, request.ID).Error)
	assert.Equal(t, models.RequestStatusFulfilled, request.Status)
}

// TestLaborRequestFansOutToEveryMatchedAgency covers the multi-craft case:
// each craft notifies its own set of agencies, and an agency matched by two
// crafts gets one notification per craft.
func TestLaborRequestFansOutToEveryMatchedAgency(t *testing.T) {
	db := testutil.OpenTestDB(t)

	electrician := testutil.SeedTrade(t, db, "Electrician", "electrician")
	pipefitter := testutil.SeedTrade(t, db, "Pipefitter", "pipefitter")
	texas := testutil.SeedRegion(t, db, "Texas", "TX")

	specialist := testutil.SeedAgency(t, db, "Sparks Only", []models.Trade{electrician}, []models.Region{texas})
	generalist := testutil.SeedAgency(t, db, "All Trades TX", []models.Trade{electrician, pipefitter}, []models.Region{texas})

	public := publicRouter()
	craft := func(tradeID uint) gin.H {
		return gin.H{
			"tradeId":         tradeID,
			"regionId":        texas.ID,
			"experienceLevel": "foreman",
			"workerCount":     2,
			"startDate":       time.Now().AddDate(0, 2, 0).Format("2006-01-02"),
			"durationDays":    20,
			"hoursPerWeek":    40,
		}
	}

	w := testutil.PerformJSON(t, public, "POST", "/api/v1/labor-requests", gin.H{
		"projectName":  "Plant maintenance",
		"companyName":  "Acme Industrial",
		"contactEmail": "pm@acme.example",
		"contactPhone": "5550100123",
		"crafts":       []gin.H{craft(electrician.ID), craft(pipefitter.ID)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 3, testutil.DecodeJSON(t, w)["totalMatches"])

	var counts []struct {
		AgencyID uint
		N        int64
	}
	require.NoError(t, db.Model(&models.Notification{}).
		Select("agency_id, COUNT(*) as n").
		Group("agency_id").
		Order("agency_id").
		Scan(&counts).Error)
	require.Len(t, counts, 2)
	assert.Equal(t, specialist.ID, counts[0].AgencyID)
	assert.EqualValues(t, 1, counts[0].N)
	assert.Equal(t, generalist.ID, counts[1].AgencyID)
	assert.EqualValues(t, 2, counts[1].N)
}
