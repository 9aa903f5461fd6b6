package registry

import (
	"strings"

	"obra-patrimonio/internal/models"
)

// AllSentinel is the select value that disables a status or site filter.
const AllSentinel = "Todas"

// IsAll reports whether v disables an exact-match filter.
func IsAll(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "all", "todas", "todos":
		return true
	}
	return false
}

type AssetFilter struct {
	Query  string
	Status string
	Site   string
}

type RentalFilter struct {
	Query  string
	Status string
	Site   string
}

// FilterAssets keeps the assets matching every active criterion, in order.
// Query matches name, tag or custodian, case-insensitively.
func FilterAssets(assets []models.Asset, f AssetFilter) []models.Asset {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Asset, 0, len(assets))
	for _, a := range assets {
		if !IsAll(f.Status) && a.Status != f.Status {
			continue
		}
		if !IsAll(f.Site) && a.Site != f.Site {
			continue
		}
		if q != "" && !containsAny(q, a.Name, a.Tag, a.Custodian) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FilterRentals is FilterAssets for rentals; Query matches equipment,
// responsible or contract.
func FilterRentals(rentals []models.Rental, f RentalFilter) []models.Rental {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Rental, 0, len(rentals))
	for _, r := range rentals {
		if !IsAll(f.Status) && string(r.Status) != f.Status {
			continue
		}
		if !IsAll(f.Site) && r.Site != f.Site {
			continue
		}
		if q != "" && !containsAny(q, r.Equipment, r.Responsible, r.Contract) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
