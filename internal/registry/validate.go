package registry

import (
	"slices"
	"strings"

	"obra-patrimonio/internal/models"
)

// ValidateAsset checks the fields required at submission. statuses is the
// configured status list; an empty list accepts any status.
func ValidateAsset(a models.Asset, statuses []string) error {
	var missing []string
	if strings.TrimSpace(a.Site) == "" {
		missing = append(missing, "site")
	}
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.InvoiceNumber) == "" {
		missing = append(missing, "invoice_number")
	}
	if strings.TrimSpace(a.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(a.Custodian) == "" {
		missing = append(missing, "custodian")
	}
	if a.Value.IsNegative() {
		missing = append(missing, "value")
	}
	if len(statuses) > 0 && !slices.Contains(statuses, a.Status) {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func ValidateRental(r models.Rental) error {
	var missing []string
	if strings.TrimSpace(r.Equipment) == "" {
		missing = append(missing, "equipment")
	}
	if strings.TrimSpace(r.Site) == "" {
		missing = append(missing, "site")
	}
	if r.Quantity < 1 {
		missing = append(missing, "quantity")
	}
	if r.UnitValue.IsNegative() {
		missing = append(missing, "unit_value")
	}
	if !slices.Contains(models.RentalStatuses, r.Status) {
		missing = append(missing, "status")
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
