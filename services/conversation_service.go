package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crewlink/crewlink-api/models"
)

// EditWindow is how long after sending a message its author may still edit it
const EditWindow = 5 * time.Minute

// Conversation and message operation failures
var (
	ErrEmptyMessage      = errors.New("message content is empty")
	ErrMessageNotFound   = errors.New("message not found")
	ErrNotMessageSender  = errors.New("only the sender may perform this action")
	ErrEditWindowExpired = errors.New("edit window expired")
	ErrMessageRemoved    = errors.New("message has been removed")
	ErrNotParticipant    = errors.New("user is not a participant of this conversation")
)

// FindOrCreateConversation returns the single conversation between a contractor
// and an agency-side user, creating it if it does not exist yet. Concurrent
// first-contact sends are resolved by the unique index on the participant pair:
// a duplicate-key rejection means the other call won the race, so we re-fetch
// the now-existing row instead of erroring.
func FindOrCreateConversation(db *gorm.DB, contractorID, agencyUserID uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := db.Where("contractor_id = ? AND agency_user_id = ?", contractorID, agencyUserID).
		First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conversation = models.Conversation{
		ContractorID:  contractorID,
		AgencyUserID:  agencyUserID,
		LastMessageAt: time.Now(),
	}
	if err := db.Create(&conversation).Error; err != nil {
		if isUniqueViolation(err) {
			// lost the race, the row exists now
			var existing models.Conversation
			if fetchErr := db.Where("contractor_id = ? AND agency_user_id = ?", contractorID, agencyUserID).
				First(&existing).Error; fetchErr != nil {
				return nil, fmt.Errorf("failed to re-fetch conversation after conflict: %w", fetchErr)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

// SendMessage appends a message to a conversation, bumps the conversation's
// activity timestamp and broadcasts the message to the other participant.
// The broadcast is best-effort: the message is durable whether or not any
// realtime subscriber receives it.
func SendMessage(db *gorm.DB, conversationID, senderID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	message := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_at", message.CreatedAt).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"message_id":      message.ID,
		}).WithError(err).Warn("failed to bump conversation activity timestamp")
	}

	if hub := GetHub(); hub != nil {
		hub.Publish(ConversationTopic(conversationID), Event{
			Type:    "message.created",
			Payload: message.ToResponse(),
		})
	}

	return &message, nil
}

// EditMessage replaces a message's content. Only the original sender may edit,
// only within EditWindow of sending, and never after moderation removed it.
func EditMessage(db *gorm.DB, messageID, actingUserID uint, newContent string) (*models.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return nil, ErrEmptyMessage
	}

	var message models.Message
	if err := db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	if message.SenderID != actingUserID {
		return nil, ErrNotMessageSender
	}
	if message.Removed() {
		return nil, ErrMessageRemoved
	}
	if time.Since(message.CreatedAt) > EditWindow {
		return nil, ErrEditWindowExpired
	}

	now := time.Now()
	updates := map[string]interface{}{
		"content":   newContent,
		"edited_at": now,
	}
	if err := db.Model(&message).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}

	message.Content = newContent
	message.EditedAt = &now
	return &message, nil
}

// DeleteMessage tombstones a message. Only the sender or an admin may do it.
// The stored content is kept for audit; only the displayed content changes.
func DeleteMessage(db *gorm.DB, messageID uint, actor *models.User) (*models.Message, error) {
	var message models.Message
	if err := db.First(&message, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	if message.SenderID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotMessageSender
	}

	if message.Removed() {
		return &message, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"deleted_at": now,
		"deleted_by": actor.ID,
	}
	if err := db.Model(&message).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to remove message: %w", err)
	}

	actorID := actor.ID
	message.RemovedAt = &now
	message.RemovedByID = &actorID
	return &message, nil
}

// MarkConversationRead records that the user has seen the conversation up to now
func MarkConversationRead(db *gorm.DB, conversationID, userID uint) error {
	read := models.ConversationRead{
		ConversationID: conversationID,
		UserID:         userID,
		LastReadAt:     time.Now(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_read_at": read.LastReadAt}),
	}).Create(&read).Error
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

// unreadMessages builds the query counting messages the user has not read:
// messages in the user's conversations, sent by the other party, not
// tombstoned, newer than the user's read marker (or all, if no marker yet).
func unreadMessages(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Joins("LEFT JOIN conversation_reads ON conversation_reads.conversation_id = conversations.id AND conversation_reads.user_id = ?", userID).
		Where("conversations.contractor_id = ? OR conversations.agency_user_id = ?", userID, userID).
		Where("messages.sender_id <> ?", userID).
		Where("messages.deleted_at IS NULL").
		Where("conversation_reads.last_read_at IS NULL OR messages.created_at > conversation_reads.last_read_at")
}

// UnreadCount computes the user's total unread message count across all
// conversations. Computed per call from the read markers so it cannot drift.
func UnreadCount(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	if err := unreadMessages(db, userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to compute unread count: %w", err)
	}
	return count, nil
}

// ConversationUnreadCount computes the user's unread count for one conversation
func ConversationUnreadCount(db *gorm.DB, conversationID, userID uint) (int64, error) {
	var count int64
	err := unreadMessages(db, userID).
		Where("messages.conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute unread count: %w", err)
	}
	return count, nil
}

// isUniqueViolation detects a unique-constraint rejection from Postgres or
// SQLite without depending on driver error types
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
