package models

import (
	"time"
)

// Notification statuses
const (
	NotificationStatusPending   = "pending"
	NotificationStatusViewed    = "viewed"
	NotificationStatusResponded = "responded"
)

// Notification represents one matched agency being told about one craft requirement.
// The (craft_requirement_id, agency_id) pair is unique so repeated fan-out for the
// same craft cannot create duplicate rows.
type Notification struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	LaborRequestID     uint             `gorm:"not null;index" json:"labor_request_id"`
	LaborRequest       LaborRequest     `gorm:"foreignKey:LaborRequestID" json:"labor_request,omitempty"`
	CraftRequirementID uint             `gorm:"not null;uniqueIndex:idx_notifications_craft_agency" json:"craft_requirement_id"`
	CraftRequirement   CraftRequirement `gorm:"foreignKey:CraftRequirementID" json:"craft_requirement,omitempty"`
	AgencyID           uint             `gorm:"not null;uniqueIndex:idx_notifications_craft_agency;index" json:"agency_id"`
	Agency             Agency           `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	Status             string           `gorm:"not null;default:'pending';index" json:"status"` // pending, viewed, responded
	ViewedAt           *time.Time       `json:"viewed_at,omitempty"`
	RespondedAt        *time.Time       `json:"responded_at,omitempty"`
	Interested         *bool            `json:"interested,omitempty"`
	ResponseMessage    *string          `gorm:"type:text" json:"response_message,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
