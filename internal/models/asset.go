package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is one physical item (patrimônio). Tag is unique per site.
type Asset struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Site string `gorm:"size:120;not null;uniqueIndex:idx_asset_site_tag" json:"site"`
	Tag  string `gorm:"size:60;not null;uniqueIndex:idx_asset_site_tag" json:"tag"`

	Name          string          `gorm:"size:255;not null" json:"name"`
	Specification string          `gorm:"type:text" json:"specification"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Location      string          `gorm:"size:255;not null" json:"location"`
	Custodian     string          `gorm:"size:255" json:"custodian"`
	InvoiceNumber string          `gorm:"size:60" json:"invoice_number"`
	InvoiceURL    string          `gorm:"size:512" json:"invoice_url,omitempty"`
	PhotoURL      string          `gorm:"size:512" json:"photo_url,omitempty"`
	Value         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"value"`
	Status        string          `gorm:"size:60" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
