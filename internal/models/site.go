package models

import "time"

// Site is a construction site (obra), the tenant partition for assets and rentals.
type Site struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	AccessCodeHash string `gorm:"size:100" json:"-"`

	// Optional overrides of the configured movement status labels.
	AvailableStatus string `gorm:"size:60" json:"available_status,omitempty"`
	ExternalStatus  string `gorm:"size:60" json:"external_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Status struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:60;uniqueIndex;not null" json:"name"`
}
