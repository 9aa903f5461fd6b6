package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Actor    string `gorm:"size:160;not null" json:"actor"` // "admin" or "obra:<name>"
	Site     string `gorm:"size:120" json:"site"`
	Entity   string `gorm:"size:50;not null" json:"entity"` // "asset", "rental", "movement"
	EntityID uint   `json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "update", "delete", "move"
	Details  string `gorm:"type:text" json:"details"`
}
