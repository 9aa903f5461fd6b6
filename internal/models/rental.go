package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RentalStatus string

const (
	RentalActive      RentalStatus = "ACTIVE"
	RentalMaintenance RentalStatus = "MAINTENANCE"
	RentalReturned    RentalStatus = "RETURNED"
)

var RentalStatuses = []RentalStatus{RentalActive, RentalMaintenance, RentalReturned}

// Rental is leased equipment (locação), independent of owned assets.
type Rental struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Equipment   string          `gorm:"size:255;not null" json:"equipment"`
	Site        string          `gorm:"size:120;not null;index" json:"site"`
	Responsible string          `gorm:"size:255" json:"responsible"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	Unit        string          `gorm:"size:40" json:"unit"`
	UnitValue   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"unit_value"`
	Total       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	Contract    string          `gorm:"size:120" json:"contract"`
	Status      RentalStatus    `gorm:"type:varchar(20);not null" json:"status"`
	StartDate   *time.Time      `gorm:"type:date" json:"start_date,omitempty"`
	EndDate     *time.Time      `gorm:"type:date" json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave keeps the redundant total in sync with quantity and unit value.
func (r *Rental) BeforeSave(tx *gorm.DB) error {
	r.Total = r.ComputeTotal()
	return nil
}

func (r Rental) ComputeTotal() decimal.Decimal {
	return r.UnitValue.Mul(decimal.NewFromInt(int64(r.Quantity)))
}
