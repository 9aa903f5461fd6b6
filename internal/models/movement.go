package models

import "time"

type MovementType string

const (
	MovementEntry MovementType = "ENTRY"
	MovementExit  MovementType = "EXIT"
)

// Movement is an append-only check-in/check-out entry. It references the
// asset by (Site, Tag), not by ID.
type Movement struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Site      string       `gorm:"size:120;not null;index:idx_movement_site_tag" json:"site"`
	Tag       string       `gorm:"size:60;not null;index:idx_movement_site_tag" json:"tag"`
	Type      MovementType `gorm:"type:varchar(10);not null" json:"type"`
	At        time.Time    `gorm:"not null" json:"at"`
	Custodian string       `gorm:"size:255" json:"custodian"`
	Notes     string       `gorm:"type:text" json:"notes"`
}
