package models

import (
	"time"
)

// Labor request statuses
const (
	RequestStatusPending   = "pending"
	RequestStatusActive    = "active"
	RequestStatusFulfilled = "fulfilled"
	RequestStatusCancelled = "cancelled"
)

// Experience levels for craft requirements
const (
	ExperienceApprentice = "apprentice"
	ExperienceJourneyman = "journeyman"
	ExperienceForeman    = "foreman"
)

// LaborRequest represents one staffing need submitted by a contractor.
// Requests are never hard-deleted; their lifecycle is driven by status.
type LaborRequest struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	ProjectName       string             `gorm:"not null" json:"project_name"`
	CompanyName       string             `gorm:"not null" json:"company_name"`
	ContactEmail      string             `gorm:"not null;index" json:"contact_email"`
	ContactPhone      string             `gorm:"not null" json:"contact_phone"`
	AdditionalDetails *string            `gorm:"type:text" json:"additional_details,omitempty"`
	Status            string             `gorm:"not null;default:'pending';index" json:"status"` // pending, active, fulfilled, cancelled
	ConfirmationToken string             `gorm:"uniqueIndex;not null" json:"-"`                  // single-use, never exposed on reads
	TokenExpiresAt    time.Time          `gorm:"not null" json:"-"`
	ConfirmedAt       *time.Time         `json:"confirmed_at,omitempty"`
	Crafts            []CraftRequirement `gorm:"foreignKey:LaborRequestID;constraint:OnDelete:CASCADE" json:"crafts,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// TableName specifies the table name for the LaborRequest model
func (LaborRequest) TableName() string {
	return "labor_requests"
}

// TokenExpired reports whether the confirmation token has passed its expiry
func (r *LaborRequest) TokenExpired(now time.Time) bool {
	return now.After(r.TokenExpiresAt)
}

// CraftRequirement represents one trade/region/quantity line item of a labor request
type CraftRequirement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LaborRequestID  uint      `gorm:"not null;index" json:"labor_request_id"`
	TradeID         uint      `gorm:"not null;index" json:"trade_id"`
	Trade           Trade     `gorm:"foreignKey:TradeID" json:"trade,omitempty"`
	RegionID        uint      `gorm:"not null;index" json:"region_id"`
	Region          Region    `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	ExperienceLevel string    `gorm:"not null" json:"experience_level"` // apprentice, journeyman, foreman
	WorkerCount     int       `gorm:"not null;check:worker_count > 0" json:"worker_count"`
	StartDate       time.Time `gorm:"not null" json:"start_date"`
	DurationDays    int       `gorm:"not null" json:"duration_days"`
	HoursPerWeek    int       `gorm:"not null" json:"hours_per_week"`
	PayRateMin      *float64  `json:"pay_rate_min,omitempty"` // both bounds set or neither, max >= min
	PayRateMax      *float64  `json:"pay_rate_max,omitempty"`
	PerDiemRate     *float64  `json:"per_diem_rate,omitempty"`
	Notes           *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CraftRequirement model
func (CraftRequirement) TableName() string {
	return "craft_requirements"
}
