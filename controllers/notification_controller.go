package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// loadAgencyNotification fetches a notification and checks the caller acts for
// its agency. Writes the error response and returns false on failure.
func loadAgencyNotification(c *gin.Context) (*models.User, *models.Notification, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, nil, false
	}

	notificationID, ok := idParam(c, "id")
	if !ok {
		return nil, nil, false
	}

	db := config.GetDB()
	var notification models.Notification
	if err := db.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOTIFICATION_NOT_FOUND",
					"message": "Notification not found",
				},
			})
			return nil, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch notification",
			},
		})
		return nil, nil, false
	}

	if !user.BelongsToAgency(notification.AgencyID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not act on behalf of this notification's agency",
			},
		})
		return nil, nil, false
	}

	return user, &notification, true
}

// ViewNotification handles POST /api/v1/labor-requests/notifications/:id/view -
// marks a notification viewed by its agency. Idempotent: viewing twice keeps
// the first viewed_at.
func ViewNotification(c *gin.Context) {
	_, notification, ok := loadAgencyNotification(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if notification.Status == models.NotificationStatusPending {
		now := time.Now()
		updates := map[string]interface{}{
			"status":    models.NotificationStatusViewed,
			"viewed_at": now,
		}
		if err := db.Model(notification).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update notification",
				},
			})
			return
		}
		notification.Status = models.NotificationStatusViewed
		notification.ViewedAt = &now
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"notification": gin.H{
			"id":        notification.ID,
			"status":    notification.Status,
			"viewed_at": notification.ViewedAt,
		},
	})
}

// RespondNotificationRequest is the body of the respond endpoint
type RespondNotificationRequest struct {
	Interested *bool   `json:"interested" binding:"required"`
	Message    *string `json:"message"`
}

// RespondNotification handles POST /api/v1/labor-requests/notifications/:id/respond -
// records the agency's interest. An optional message opens the conversation
// with the contractor when the request's contact email belongs to a registered
// contractor.
func RespondNotification(c *gin.Context) {
	user, notification, ok := loadAgencyNotification(c)
	if !ok {
		return
	}

	var req RespondNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": validationDetails(err),
			},
		})
		return
	}

	db := config.GetDB()
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.NotificationStatusResponded,
		"responded_at": now,
		"interested":   *req.Interested,
	}
	if req.Message != nil {
		updates["response_message"] = *req.Message
	}
	if err := db.Model(notification).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update notification",
			},
		})
		return
	}

	// If the agency wrote a message and the contractor has an account,
	// carry the reply into the messaging vertical. Best-effort: a missing
	// contractor account is not an error.
	if req.Message != nil && *req.Message != "" {
		var request models.LaborRequest
		if err := db.First(&request, notification.LaborRequestID).Error; err == nil {
			var contractor models.User
			err := db.Where("email = ? AND role = ?", request.ContactEmail, models.RoleContractor).
				First(&contractor).Error
			if err == nil {
				if conversation, convErr := services.FindOrCreateConversation(db, contractor.ID, user.ID); convErr == nil {
					_, _ = services.SendMessage(db, conversation.ID, user.ID, *req.Message)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"notification": gin.H{
			"id":           notification.ID,
			"status":       models.NotificationStatusResponded,
			"responded_at": now,
			"interested":   *req.Interested,
		},
	})
}

// ListAgencyNotifications handles GET /api/v1/agencies/:id/notifications -
// the agency's inbox, newest first, with optional status filter
func ListAgencyNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	agencyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if !user.BelongsToAgency(agencyID) && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not act on behalf of this agency",
			},
		})
		return
	}

	limit, offset := pagination(c, 20)
	db := config.GetDB()
	query := db.Where("agency_id = ?", agencyID).
		Preload("CraftRequirement").
		Preload("CraftRequirement.Trade").
		Preload("CraftRequirement.Region").
		Preload("LaborRequest").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch notifications",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notifications,
	})
}

// StreamAgencyNotifications handles GET /api/v1/agencies/:id/notifications/stream -
// server-sent events for the agency's inbox. Delivery is best-effort; clients
// poll the inbox as the fallback.
func StreamAgencyNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	agencyID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if !user.BelongsToAgency(agencyID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not act on behalf of this agency",
			},
		})
		return
	}

	hub := services.GetHub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REALTIME_UNAVAILABLE",
				"message": "Realtime delivery is not available",
			},
		})
		return
	}

	events, cancel := hub.Subscribe(services.AgencyTopic(agencyID))
	defer cancel()

	streamEvents(c, events)
}

// streamEvents pumps hub events to the client as SSE until the subscription
// closes or the client disconnects
func streamEvents(c *gin.Context, events <-chan services.Event) {
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
