package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/crewlink/crewlink-api/config"
	"github.com/crewlink/crewlink-api/models"
	"github.com/crewlink/crewlink-api/services"
)

// CreateConversationRequest is the body of POST /api/v1/conversations.
// A contractor addresses an agency-side user and vice versa; the pair has at
// most one conversation, so this endpoint finds or creates it.
type CreateConversationRequest struct {
	AgencyUserID *uint   `json:"agencyUserId"`
	ContractorID *uint   `json:"contractorId"`
	Message      *string `json:"message"`
}

// CreateConversation handles POST /api/v1/conversations
func CreateConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateConversationRequest
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

	var contractorID, agencyUserID uint
	switch user.Role {
	case models.RoleContractor:
		if req.AgencyUserID == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "agencyUserId is required for contractors",
				},
			})
			return
		}
		contractorID, agencyUserID = user.ID, *req.AgencyUserID
	case models.RoleAgency:
		if req.ContractorID == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "contractorId is required for agency users",
				},
			})
			return
		}
		contractorID, agencyUserID = *req.ContractorID, user.ID
	default:
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only contractors and agency users can start conversations",
			},
		})
		return
	}

	db := config.GetDB()

	// The counterparty must exist and carry the expected role
	var other models.User
	otherID := contractorID
	expectedRole := models.RoleContractor
	if user.Role == models.RoleContractor {
		otherID = agencyUserID
		expectedRole = models.RoleAgency
	}
	if err := db.First(&other, otherID).Error; err != nil || other.Role != expectedRole {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PARTICIPANT_NOT_FOUND",
				"message": "The other participant was not found",
			},
		})
		return
	}

	conversation, err := services.FindOrCreateConversation(db, contractorID, agencyUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create conversation",
			},
		})
		return
	}

	if req.Message != nil {
		if _, err := services.SendMessage(db, conversation.ID, user.ID, *req.Message); err != nil &&
			!errors.Is(err, services.ErrEmptyMessage) {
			logrus.WithError(err).Warn("failed to send initial conversation message")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    conversation,
	})
}

// conversationSummary is one row of the conversation list, with its unread count
type conversationSummary struct {
	models.Conversation
	UnreadCount int64 `json:"unread_count"`
}

// ListConversations handles GET /api/v1/conversations - the caller's threads,
// most recent activity first, each with its computed unread count
func ListConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var conversations []models.Conversation
	err := db.Where("contractor_id = ? OR agency_user_id = ?", user.ID, user.ID).
		Preload("Contractor").
		Preload("AgencyUser").
		Order("last_message_at DESC").
		Find(&conversations).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversations",
			},
		})
		return
	}

	summaries := make([]conversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		unread, err := services.ConversationUnreadCount(db, conversation.ID, user.ID)
		if err != nil {
			// degrade to zero rather than failing the listing
			logrus.WithError(err).Warn("failed to compute conversation unread count")
			unread = 0
		}
		summaries = append(summaries, conversationSummary{Conversation: conversation, UnreadCount: unread})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summaries,
	})
}

// loadConversation fetches a conversation and checks the caller may access it.
// Admins may read any conversation (moderation).
func loadConversation(c *gin.Context) (*models.User, *models.Conversation, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, nil, false
	}

	conversationID, ok := idParam(c, "id")
	if !ok {
		return nil, nil, false
	}

	db := config.GetDB()
	var conversation models.Conversation
	if err := db.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONVERSATION_NOT_FOUND",
					"message": "Conversation not found",
				},
			})
			return nil, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversation",
			},
		})
		return nil, nil, false
	}

	if !conversation.HasParticipant(user.ID) && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You are not a participant of this conversation",
			},
		})
		return nil, nil, false
	}

	return user, &conversation, true
}

// ListConversationMessages handles GET /api/v1/conversations/:id/messages -
// paged messages, oldest first, tombstones rendered with the removal marker
func ListConversationMessages(c *gin.Context) {
	_, conversation, ok := loadConversation(c)
	if !ok {
		return
	}

	limit, offset := pagination(c, 50)
	db := config.GetDB()
	var messages []models.Message
	err := db.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	responses := make([]models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    responses,
	})
}

// SendConversationMessageRequest is the body for sending a message
type SendConversationMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendConversationMessage handles POST /api/v1/conversations/:id/messages
func SendConversationMessage(c *gin.Context) {
	user, conversation, ok := loadConversation(c)
	if !ok {
		return
	}

	if !conversation.HasParticipant(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only participants can send messages",
			},
		})
		return
	}

	var req SendConversationMessageRequest
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
	message, err := services.SendMessage(db, conversation.ID, user.ID, req.Content)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Message content must not be empty",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to send message",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message.ToResponse(),
	})
}

// MarkConversationRead handles POST /api/v1/conversations/:id/read
func MarkConversationRead(c *gin.Context) {
	user, conversation, ok := loadConversation(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if err := services.MarkConversationRead(db, conversation.ID, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to mark conversation read",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// UnreadCount handles GET /api/v1/conversations/unread-count - the polling
// fallback for realtime delivery. An internal failure degrades to a stale
// zero instead of surfacing an error; clients keep their last known value.
func UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	count, err := services.UnreadCount(db, user.ID)
	if err != nil {
		logrus.WithError(err).Warn("failed to compute unread count")
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"unread": 0,
				"stale":  true,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"unread": count,
		},
	})
}

// StreamConversation handles GET /api/v1/conversations/:id/stream -
// server-sent events for new messages in the conversation
func StreamConversation(c *gin.Context) {
	user, conversation, ok := loadConversation(c)
	if !ok {
		return
	}

	if !conversation.HasParticipant(user.ID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only participants can subscribe to this conversation",
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

	events, cancel := hub.Subscribe(services.ConversationTopic(conversation.ID))
	defer cancel()

	streamEvents(c, events)
}
