package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleContractor = "contractor"
	RoleAgency     = "agency"
	RoleAdmin      = "admin"
)

// User represents a user in the system (contractor, agency staffer, or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'contractor'" json:"role"` // "contractor", "agency" or "admin"
	AgencyID  *uint          `gorm:"index" json:"agency_id,omitempty"`          // set for agency-role users once a claim is approved
	Agency    *Agency        `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has moderation capability
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BelongsToAgency reports whether the user acts on behalf of the given agency
func (u *User) BelongsToAgency(agencyID uint) bool {
	return u.Role == RoleAgency && u.AgencyID != nil && *u.AgencyID == agencyID
}
