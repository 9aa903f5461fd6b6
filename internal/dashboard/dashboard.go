package dashboard

import (
	"sort"
	"time"

	"obra-patrimonio/internal/models"

	"github.com/shopspring/decimal"
)

const topValuedLimit = 10

type LabelValue struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type MonthCount struct {
	Month string              `json:"month"` // "2006-01"
	Type  models.MovementType `json:"type"`
	Count int                 `json:"count"`
}

type Summary struct {
	TotalItems int             `json:"total_items"`
	TotalValue decimal.Decimal `json:"total_value"`
	// AverageAgeDays is nil when no asset has an ENTRY movement.
	AverageAgeDays *float64 `json:"average_age_days,omitempty"`

	TopValued        []models.Asset `json:"top_valued"`
	ValueByCustodian []LabelValue   `json:"value_by_custodian"`
	StatusCounts     []LabelCount   `json:"status_counts"`
	AcquiredByMonth  []LabelValue   `json:"acquired_by_month"`
	MovementsByMonth []MonthCount   `json:"movements_by_month"`

	ActiveRentals     int             `json:"active_rentals"`
	MonthlyRentalCost decimal.Decimal `json:"monthly_rental_cost"`
}

type assetKey struct{ site, tag string }

// Summarize aggregates already-scoped records. An asset's acquisition date is
// its earliest ENTRY movement.
func Summarize(assets []models.Asset, movements []models.Movement, rentals []models.Rental, now time.Time) Summary {
	s := Summary{
		TotalItems:        len(assets),
		TotalValue:        decimal.Zero,
		MonthlyRentalCost: decimal.Zero,
	}

	acquired := map[assetKey]time.Time{}
	for _, m := range movements {
		if m.Type != models.MovementEntry {
			continue
		}
		k := assetKey{m.Site, m.Tag}
		if first, ok := acquired[k]; !ok || m.At.Before(first) {
			acquired[k] = m.At
		}
	}

	byCustodian := map[string]decimal.Decimal{}
	byStatus := map[string]int{}
	byMonth := map[string]decimal.Decimal{}
	var ageSum float64
	var aged int

	for _, a := range assets {
		s.TotalValue = s.TotalValue.Add(a.Value)
		byCustodian[a.Custodian] = byCustodian[a.Custodian].Add(a.Value)
		byStatus[a.Status]++

		if at, ok := acquired[assetKey{a.Site, a.Tag}]; ok {
			ageSum += float64(int(now.Sub(at).Hours() / 24))
			aged++
			month := at.Format("2006-01")
			byMonth[month] = byMonth[month].Add(a.Value)
		}
	}
	if aged > 0 {
		avg := ageSum / float64(aged)
		s.AverageAgeDays = &avg
	}

	top := make([]models.Asset, len(assets))
	copy(top, assets)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Value.GreaterThan(top[j].Value) })
	if len(top) > topValuedLimit {
		top = top[:topValuedLimit]
	}
	s.TopValued = top

	for label, v := range byCustodian {
		s.ValueByCustodian = append(s.ValueByCustodian, LabelValue{label, v})
	}
	sort.Slice(s.ValueByCustodian, func(i, j int) bool {
		a, b := s.ValueByCustodian[i], s.ValueByCustodian[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		return a.Label < b.Label
	})

	for label, n := range byStatus {
		s.StatusCounts = append(s.StatusCounts, LabelCount{label, n})
	}
	sort.Slice(s.StatusCounts, func(i, j int) bool {
		a, b := s.StatusCounts[i], s.StatusCounts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Label < b.Label
	})

	for month, v := range byMonth {
		if v.IsPositive() {
			s.AcquiredByMonth = append(s.AcquiredByMonth, LabelValue{month, v})
		}
	}
	sort.Slice(s.AcquiredByMonth, func(i, j int) bool { return s.AcquiredByMonth[i].Label < s.AcquiredByMonth[j].Label })

	s.MovementsByMonth = movementsByMonth(movements)

	for _, r := range rentals {
		if r.Status == models.RentalActive {
			s.ActiveRentals++
			s.MonthlyRentalCost = s.MonthlyRentalCost.Add(r.ComputeTotal())
		}
	}
	return s
}

func movementsByMonth(movements []models.Movement) []MonthCount {
	type key struct {
		month string
		typ   models.MovementType
	}
	counts := map[key]int{}
	for _, m := range movements {
		counts[key{m.At.Format("2006-01"), m.Type}]++
	}

	out := make([]MonthCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, MonthCount{Month: k.month, Type: k.typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Type < out[j].Type
	})
	return out
}
