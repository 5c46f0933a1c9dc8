package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// EditMessageRequest is the body of PATCH /api/v1/messages/:id
type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// EditMessage handles PATCH /api/v1/messages/:id - sender-only edit within
// the edit window. An expired window is a distinct condition, not a generic
// forbidden.
func EditMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req EditMessageRequest
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
	message, err := services.EditMessage(db, messageID, user.ID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MESSAGE_NOT_FOUND",
					"message": "Message not found",
				},
			})
		case errors.Is(err, services.ErrNotMessageSender):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Only the sender can edit a message",
				},
			})
		case errors.Is(err, services.ErrEditWindowExpired):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EDIT_WINDOW_EXPIRED",
					"message": "The edit window for this message has expired",
				},
			})
		case errors.Is(err, services.ErrMessageRemoved):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MESSAGE_REMOVED",
					"message": "A removed message cannot be edited",
				},
			})
		case errors.Is(err, services.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Message content must not be empty",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to edit message",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    message.ToResponse(),
	})
}

// DeleteMessage handles DELETE /api/v1/messages/:id - tombstones a message.
// Allowed for the original sender and admins. The stored content survives for
// audit; readers see the removal marker.
func DeleteMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	message, err := services.DeleteMessage(db, messageID, user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MESSAGE_NOT_FOUND",
					"message": "Message not found",
				},
			})
		case errors.Is(err, services.ErrNotMessageSender):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Only the sender or an administrator can remove a message",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to remove message",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    message.ToResponse(),
	})
}

// AuditMessage handles GET /api/v1/admin/messages/:id/audit - the only path
// that returns a tombstoned message's original content
func AuditMessage(c *gin.Context) {
	_, ok := requireAdmin(c)
	if !ok {
		return
	}

	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var message models.Message
	if err := db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MESSAGE_NOT_FOUND",
					"message": "Message not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch message",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":               message.ID,
			"conversation_id":  message.ConversationID,
			"sender_id":        message.SenderID,
			"original_content": message.Content,
			"sent_at":          message.CreatedAt,
			"edited_at":        message.EditedAt,
			"deleted_at":       message.RemovedAt,
			"deleted_by":       message.RemovedByID,
		},
	})
}
