package service

import (
	"context"
	"errors"
	"time"

	"obra-patrimonio/internal/blob"
	"obra-patrimonio/internal/dashboard"
	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const auditLimit = 200

type Options struct {
	// Store serves views and takes writes; it may be cached.
	Store store.Store
	// Fresh serves the reads that guard a write. Defaults to Store.
	Fresh         store.Store
	Blobs         blob.Uploader
	Labels        registry.StatusLabels
	AdminPassword string
	Logger        *zap.Logger
}

// Registry runs every screen operation as: read current state, apply one
// change, return. It keeps no state between calls.
type Registry struct {
	store     store.Store
	fresh     store.Store
	blobs     blob.Uploader
	labels    registry.StatusLabels
	adminHash []byte
	log       *zap.Logger
	now       func() time.Time
}

func New(opts Options) (*Registry, error) {
	if opts.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if opts.AdminPassword == "" {
		return nil, errors.New("service: admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if opts.Fresh == nil {
		opts.Fresh = opts.Store
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Registry{
		store:     opts.Store,
		fresh:     opts.Fresh,
		blobs:     opts.Blobs,
		labels:    opts.Labels,
		adminHash: hash,
		log:       opts.Logger,
		now:       time.Now,
	}, nil
}

func (r *Registry) AuthenticateAdmin(password string) (Session, error) {
	if bcrypt.CompareHashAndPassword(r.adminHash, []byte(password)) != nil {
		return Session{}, registry.ErrInvalidCredentials
	}
	return Session{Admin: true, ViewSite: registry.AllSentinel}, nil
}

func (r *Registry) Authenticate(ctx context.Context, siteName, code string) (Session, error) {
	sites, err := r.fresh.Sites(ctx)
	if err != nil {
		return Session{}, err
	}
	for _, s := range sites {
		if s.Name != siteName {
			continue
		}
		if s.AccessCodeHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(s.AccessCodeHash), []byte(code)) != nil {
			break
		}
		return Session{Site: s.Name}, nil
	}
	return Session{}, registry.ErrInvalidCredentials
}

// Snapshot is what one screen renders from.
type Snapshot struct {
	Statuses  []string
	Sites     []string
	Assets    []models.Asset
	Movements []models.Movement
	Rentals   []models.Rental
}

// Snapshot reads every table and keeps the rows in the session's scope.
func (r *Registry) Snapshot(ctx context.Context, sess Session) (*Snapshot, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	sites, err := r.SiteNames(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := r.store.Assets(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := r.store.Movements(ctx)
	if err != nil {
		return nil, err
	}
	rentals, err := r.store.Rentals(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Statuses: statuses, Sites: sites}
	for _, a := range assets {
		if sess.inScope(a.Site) {
			snap.Assets = append(snap.Assets, a)
		}
	}
	for _, m := range movements {
		if sess.inScope(m.Site) {
			snap.Movements = append(snap.Movements, m)
		}
	}
	for _, rt := range rentals {
		if sess.inScope(rt.Site) {
			snap.Rentals = append(snap.Rentals, rt)
		}
	}
	return snap, nil
}

func (r *Registry) Statuses(ctx context.Context) ([]string, error) {
	rows, err := r.store.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.Name)
	}
	return out, nil
}

func (r *Registry) SiteNames(ctx context.Context) ([]string, error) {
	rows, err := r.store.Sites(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.Name)
	}
	return out, nil
}

func (r *Registry) findSite(ctx context.Context, name string) (models.Site, bool, error) {
	sites, err := r.store.Sites(ctx)
	if err != nil {
		return models.Site{}, false, err
	}
	for _, s := range sites {
		if s.Name == name {
			return s, true, nil
		}
	}
	return models.Site{}, false, nil
}

// targetSite resolves the site a new record goes to: a site user always
// writes to its own site, an admin must name an existing one.
func (r *Registry) targetSite(ctx context.Context, sess Session, requested string) (string, error) {
	if !sess.Admin {
		return sess.Site, nil
	}
	if registry.IsAll(requested) {
		return "", &registry.ValidationError{Fields: []string{"site"}}
	}
	_, ok, err := r.findSite(ctx, requested)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &registry.ValidationError{Fields: []string{"site"}}
	}
	return requested, nil
}

func (r *Registry) Dashboard(ctx context.Context, sess Session) (dashboard.Summary, error) {
	snap, err := r.Snapshot(ctx, sess)
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.Summarize(snap.Assets, snap.Movements, snap.Rentals, r.now()), nil
}

func (r *Registry) AuditTrail(ctx context.Context, sess Session) ([]models.AuditLog, error) {
	if !sess.Admin {
		return nil, registry.ErrForbidden
	}
	return r.store.AuditLogs(ctx, sess.Scope(), auditLimit)
}

func (r *Registry) audit(ctx context.Context, sess Session, site, entity string, id uint, action, details string) {
	entry := &models.AuditLog{
		Actor:    sess.Actor(),
		Site:     site,
		Entity:   entity,
		EntityID: id,
		Action:   action,
		Details:  details,
	}
	if err := r.store.InsertAudit(ctx, entry); err != nil {
		r.log.Warn("audit log write failed",
			zap.String("entity", entity), zap.Uint("id", id), zap.String("action", action), zap.Error(err))
	}
}
