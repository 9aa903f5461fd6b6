package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"

	"github.com/shopspring/decimal"
)

type RentalInput struct {
	Equipment   string
	Site        string
	Responsible string
	Quantity    int
	Unit        string
	UnitValue   decimal.Decimal
	Contract    string
	Status      models.RentalStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in RentalInput) apply(rt *models.Rental) {
	rt.Equipment = strings.TrimSpace(in.Equipment)
	rt.Responsible = strings.TrimSpace(in.Responsible)
	rt.Quantity = in.Quantity
	rt.Unit = strings.TrimSpace(in.Unit)
	rt.UnitValue = in.UnitValue.Round(2)
	rt.Contract = strings.TrimSpace(in.Contract)
	rt.Status = in.Status
	if rt.Status == "" {
		rt.Status = models.RentalActive
	}
	rt.StartDate = in.StartDate
	rt.EndDate = in.EndDate
	rt.Total = rt.ComputeTotal()
}

func (r *Registry) ListRentals(ctx context.Context, sess Session, f registry.RentalFilter) ([]models.Rental, error) {
	snap, err := r.Snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !sess.Admin {
		f.Site = sess.Site
	}
	return registry.FilterRentals(snap.Rentals, f), nil
}

func (r *Registry) GetRental(ctx context.Context, sess Session, id uint) (*models.Rental, error) {
	rentals, err := r.store.Rentals(ctx)
	if err != nil {
		return nil, err
	}
	return findRental(sess, rentals, id)
}

func findRental(sess Session, rentals []models.Rental, id uint) (*models.Rental, error) {
	for i := range rentals {
		if rentals[i].ID != id {
			continue
		}
		if !sess.CanAccess(rentals[i].Site) {
			break
		}
		rt := rentals[i]
		return &rt, nil
	}
	return nil, registry.ErrNotFound
}

func (r *Registry) RegisterRental(ctx context.Context, sess Session, in RentalInput) (*models.Rental, error) {
	site, err := r.targetSite(ctx, sess, in.Site)
	if err != nil {
		return nil, err
	}
	rt := &models.Rental{Site: site}
	in.apply(rt)
	if err := registry.ValidateRental(*rt); err != nil {
		return nil, err
	}
	if err := r.store.InsertRental(ctx, rt); err != nil {
		return nil, err
	}
	r.audit(ctx, sess, rt.Site, "rental", rt.ID, "create",
		fmt.Sprintf("equipment=%s total=%s", rt.Equipment, rt.Total.StringFixed(2)))
	return rt, nil
}

// UpdateRental rewrites a rental. Admins may move it to another site; a site
// user's rental stays in that user's site.
func (r *Registry) UpdateRental(ctx context.Context, sess Session, id uint, in RentalInput) (*models.Rental, error) {
	rentals, err := r.fresh.Rentals(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := findRental(sess, rentals, id)
	if err != nil {
		return nil, err
	}
	if sess.Admin && in.Site != "" && in.Site != rt.Site {
		if rt.Site, err = r.targetSite(ctx, sess, in.Site); err != nil {
			return nil, err
		}
	}
	in.apply(rt)
	if err := registry.ValidateRental(*rt); err != nil {
		return nil, err
	}
	if err := r.store.UpdateRental(ctx, rt); err != nil {
		return nil, err
	}
	r.audit(ctx, sess, rt.Site, "rental", rt.ID, "update",
		fmt.Sprintf("status=%s total=%s", rt.Status, rt.Total.StringFixed(2)))
	return rt, nil
}

func (r *Registry) DeleteRental(ctx context.Context, sess Session, id uint, confirmed bool) error {
	if !confirmed {
		return registry.ErrUnconfirmed
	}
	rentals, err := r.fresh.Rentals(ctx)
	if err != nil {
		return err
	}
	rt, err := findRental(sess, rentals, id)
	if err != nil {
		return err
	}
	if err := r.store.DeleteRental(ctx, id); err != nil {
		return err
	}
	r.audit(ctx, sess, rt.Site, "rental", id, "delete", "equipment="+rt.Equipment)
	return nil
}
