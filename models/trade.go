package models

// Trade represents a construction craft (electrician, pipefitter, ...)
type Trade struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

// TableName specifies the table name for the Trade model
func (Trade) TableName() string {
	return "trades"
}

// Region represents a geographic service area
type Region struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"uniqueIndex;not null" json:"code"` // short code, e.g. "TX", "GULF-COAST"
}

// TableName specifies the table name for the Region model
func (Region) TableName() string {
	return "regions"
}
