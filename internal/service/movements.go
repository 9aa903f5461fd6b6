package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"

	"go.uber.org/zap"
)

type MovementInput struct {
	Type      models.MovementType
	Custodian string
	Notes     string
}

// RegisterMovement appends a movement for the asset and then moves the asset
// to the status implied by its type. The two writes are separate; when the
// status update fails the movement stays recorded and the error is returned.
func (r *Registry) RegisterMovement(ctx context.Context, sess Session, assetID uint, in MovementInput) (*models.Movement, error) {
	existing, err := r.fresh.Assets(ctx)
	if err != nil {
		return nil, err
	}
	a, err := findAsset(sess, existing, assetID)
	if err != nil {
		return nil, err
	}

	site, _, err := r.findSite(ctx, a.Site)
	if err != nil {
		return nil, err
	}
	next, err := registry.ApplyMovement(a.Status, in.Type, registry.LabelsFor(site, r.labels))
	if err != nil {
		return nil, err
	}

	m := &models.Movement{
		Site:      a.Site,
		Tag:       a.Tag,
		Type:      in.Type,
		At:        r.now(),
		Custodian: strings.TrimSpace(in.Custodian),
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := r.store.InsertMovement(ctx, m); err != nil {
		return nil, err
	}
	if err := r.store.UpdateAssetStatus(ctx, a.ID, next); err != nil {
		r.log.Error("movement recorded but asset status not updated",
			zap.Uint("movement_id", m.ID), zap.Uint("asset_id", a.ID), zap.String("status", next), zap.Error(err))
		return m, fmt.Errorf("movement %d recorded, status update failed: %w", m.ID, err)
	}

	r.audit(ctx, sess, a.Site, "movement", m.ID, "move",
		fmt.Sprintf("type=%s tag=%s status=%s->%s", in.Type, a.Tag, a.Status, next))
	return m, nil
}

// AssetHistory lists the movements of the asset's site and tag, newest first.
func (r *Registry) AssetHistory(ctx context.Context, sess Session, assetID uint) ([]models.Movement, error) {
	a, err := r.GetAsset(ctx, sess, assetID)
	if err != nil {
		return nil, err
	}
	all, err := r.store.Movements(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Movement
	for _, m := range all {
		if m.Site == a.Site && strings.TrimSpace(m.Tag) == strings.TrimSpace(a.Tag) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID > out[j].ID
		}
		return out[i].At.After(out[j].At)
	})
	return out, nil
}
