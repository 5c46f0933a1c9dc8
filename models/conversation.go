package models

import (
	"time"
)

// RemovedContentMarker replaces the visible content of a moderated message.
// The original content stays in the row for audit and is only reachable
// through the admin audit endpoint.
const RemovedContentMarker = "[message removed]"

// Conversation represents the single message thread between a contractor and an
// agency-side user. The (contractor_id, agency_user_id) pair is unique: the pair
// is typed (one contractor side, one agency side), so the ordered columns enforce
// uniqueness of the unordered pair.
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContractorID  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair;index" json:"contractor_id"`
	Contractor    User      `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	AgencyUserID  uint      `gorm:"not null;uniqueIndex:idx_conversation_pair;index" json:"agency_user_id"`
	AgencyUser    User      `gorm:"foreignKey:AgencyUserID" json:"agency_user,omitempty"`
	LastMessageAt time.Time `gorm:"not null;index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant reports whether the user is one of the two conversation parties
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.ContractorID == userID || c.AgencyUserID == userID
}

// OtherParticipantID returns the id of the party opposite to the given user
func (c *Conversation) OtherParticipantID(userID uint) uint {
	if c.ContractorID == userID {
		return c.AgencyUserID
	}
	return c.ContractorID
}

// Message represents one message in a conversation. Content is the audit copy:
// it is never physically erased. Moderated messages carry RemovedAt/RemovedByID
// and render RemovedContentMarker instead of Content on the normal read path.
// RemovedAt is a plain timestamp, not a gorm soft delete, so tombstoned rows
// stay visible to queries.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint       `gorm:"not null;index" json:"sender_id"`
	Sender         User       `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string     `gorm:"type:text;not null" json:"-"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	RemovedAt      *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	RemovedByID    *uint      `gorm:"column:deleted_by" json:"deleted_by,omitempty"`
	CreatedAt      time.Time  `json:"sent_at"`
	UpdatedAt      time.Time  `json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// Removed reports whether the message has been tombstoned by moderation
func (m *Message) Removed() bool {
	return m.RemovedAt != nil
}

// DisplayContent returns the content to show on the normal read path
func (m *Message) DisplayContent() string {
	if m.Removed() {
		return RemovedContentMarker
	}
	return m.Content
}

// MessageResponse is the wire shape of a message for non-admin callers.
// It never carries the raw content of a tombstoned message.
type MessageResponse struct {
	ID             uint       `json:"id"`
	ConversationID uint       `json:"conversation_id"`
	SenderID       uint       `json:"sender_id"`
	Content        string     `json:"content"`
	SentAt         time.Time  `json:"sent_at"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedBy      *uint      `json:"deleted_by,omitempty"`
}

// ToResponse maps a stored message row to its wire shape
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.DisplayContent(),
		SentAt:         m.CreatedAt,
		EditedAt:       m.EditedAt,
		DeletedAt:      m.RemovedAt,
		DeletedBy:      m.RemovedByID,
	}
}

// ConversationRead tracks how far a participant has read a conversation.
// Unread counts are computed against this marker, never kept as a counter.
type ConversationRead struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;uniqueIndex:idx_conversation_reads_pair" json:"conversation_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_conversation_reads_pair" json:"user_id"`
	LastReadAt     time.Time `gorm:"not null" json:"last_read_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ConversationRead model
func (ConversationRead) TableName() string {
	return "conversation_reads"
}
