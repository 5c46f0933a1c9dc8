package models

import (
	"time"

	"gorm.io/gorm"
)

// Agency represents a staffing provider listed in the directory
type Agency struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"not null;index" json:"name"`
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description     string         `gorm:"type:text" json:"description"`
	ContactEmail    string         `json:"contact_email"`
	ContactPhone    string         `json:"contact_phone"`
	Website         string         `json:"website"`
	IsActive        bool           `gorm:"not null;default:true;index" json:"is_active"`
	IsClaimed       bool           `gorm:"not null;default:false" json:"is_claimed"`
	IsUnion         bool           `gorm:"not null;default:false" json:"is_union"`
	OffersPerDiem   bool           `gorm:"not null;default:false" json:"offers_per_diem"`
	ClaimedByUserID *uint          `gorm:"index" json:"claimed_by_user_id,omitempty"`
	Trades          []Trade        `gorm:"many2many:agency_trades" json:"trades,omitempty"`
	Regions         []Region       `gorm:"many2many:agency_regions" json:"regions,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Agency model
func (Agency) TableName() string {
	return "agencies"
}

// Agency claim statuses
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// AgencyClaim represents a user's request to take ownership of an agency listing
type AgencyClaim struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	AgencyID         uint       `gorm:"not null;index" json:"agency_id"`
	Agency           Agency     `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	User             User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status           string     `gorm:"not null;default:'pending';index" json:"status"` // pending, approved, rejected
	DocumentS3Key    *string    `json:"document_s3_key,omitempty"`                      // verification document in S3
	DocumentURL      *string    `gorm:"-" json:"document_url,omitempty"`                // computed, presigned URL for admin review
	ReviewNote       *string    `json:"review_note,omitempty"`
	ReviewedByUserID *uint      `json:"reviewed_by_user_id,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the AgencyClaim model
func (AgencyClaim) TableName() string {
	return "agency_claims"
}
