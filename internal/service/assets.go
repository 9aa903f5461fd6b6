package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"obra-patrimonio/internal/blob"
	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AssetInput is the submitted asset form. Site is ignored for site users and
// on edit.
type AssetInput struct {
	Site          string
	Tag           string
	Name          string
	Specification string
	Notes         string
	Location      string
	Custodian     string
	InvoiceNumber string
	Value         decimal.Decimal
	Status        string
}

// Attachment is an uploaded file kept in memory until it is stored.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Attachments struct {
	Invoice *Attachment
	Photo   *Attachment
}

func (r *Registry) ListAssets(ctx context.Context, sess Session, f registry.AssetFilter) ([]models.Asset, error) {
	snap, err := r.Snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !sess.Admin {
		f.Site = sess.Site
	}
	return registry.FilterAssets(snap.Assets, f), nil
}

func (r *Registry) GetAsset(ctx context.Context, sess Session, id uint) (*models.Asset, error) {
	assets, err := r.store.Assets(ctx)
	if err != nil {
		return nil, err
	}
	return findAsset(sess, assets, id)
}

func findAsset(sess Session, assets []models.Asset, id uint) (*models.Asset, error) {
	for i := range assets {
		if assets[i].ID != id {
			continue
		}
		if !sess.CanAccess(assets[i].Site) {
			break
		}
		a := assets[i]
		return &a, nil
	}
	return nil, registry.ErrNotFound
}

func (r *Registry) RegisterAsset(ctx context.Context, sess Session, in AssetInput, files Attachments) (*models.Asset, error) {
	site, err := r.targetSite(ctx, sess, in.Site)
	if err != nil {
		return nil, err
	}
	siteRow, _, err := r.findSite(ctx, site)
	if err != nil {
		return nil, err
	}
	a := &models.Asset{Site: site, Status: registry.LabelsFor(siteRow, r.labels).Available}
	in.apply(a)

	if err := r.validateAsset(ctx, *a, files); err != nil {
		return nil, err
	}
	existing, err := r.fresh.Assets(ctx)
	if err != nil {
		return nil, err
	}
	if a.Tag, err = registry.AllocateOrValidateTag(site, in.Tag, existing, nil); err != nil {
		return nil, err
	}
	if err := r.storeAttachments(ctx, a, files); err != nil {
		return nil, err
	}
	if err := r.store.InsertAsset(ctx, a); err != nil {
		return nil, err
	}

	r.log.Info("asset registered", zap.String("site", a.Site), zap.String("tag", a.Tag), zap.Uint("id", a.ID))
	r.audit(ctx, sess, a.Site, "asset", a.ID, "create", fmt.Sprintf("tag=%s name=%s", a.Tag, a.Name))
	return a, nil
}

func (r *Registry) UpdateAsset(ctx context.Context, sess Session, id uint, in AssetInput, files Attachments) (*models.Asset, error) {
	existing, err := r.fresh.Assets(ctx)
	if err != nil {
		return nil, err
	}
	a, err := findAsset(sess, existing, id)
	if err != nil {
		return nil, err
	}
	previousTag := a.Tag
	in.apply(a)

	if err := r.validateAsset(ctx, *a, files); err != nil {
		return nil, err
	}
	if a.Tag, err = registry.AllocateOrValidateTag(a.Site, in.Tag, existing, &id); err != nil {
		return nil, err
	}
	if err := r.storeAttachments(ctx, a, files); err != nil {
		return nil, err
	}
	if err := r.store.UpdateAsset(ctx, a); err != nil {
		return nil, err
	}

	details := "tag=" + a.Tag
	if previousTag != a.Tag {
		details = fmt.Sprintf("tag=%s->%s", previousTag, a.Tag)
	}
	r.audit(ctx, sess, a.Site, "asset", a.ID, "update", details)
	return a, nil
}

func (r *Registry) DeleteAsset(ctx context.Context, sess Session, id uint, confirmed bool) error {
	if !confirmed {
		return registry.ErrUnconfirmed
	}
	existing, err := r.fresh.Assets(ctx)
	if err != nil {
		return err
	}
	a, err := findAsset(sess, existing, id)
	if err != nil {
		return err
	}
	if err := r.store.DeleteAsset(ctx, id); err != nil {
		return err
	}
	r.log.Info("asset deleted", zap.String("site", a.Site), zap.String("tag", a.Tag), zap.Uint("id", id))
	r.audit(ctx, sess, a.Site, "asset", id, "delete", fmt.Sprintf("tag=%s name=%s", a.Tag, a.Name))
	return nil
}

func (in AssetInput) apply(a *models.Asset) {
	a.Name = strings.TrimSpace(in.Name)
	a.Specification = strings.TrimSpace(in.Specification)
	a.Notes = strings.TrimSpace(in.Notes)
	a.Location = strings.TrimSpace(in.Location)
	a.Custodian = strings.TrimSpace(in.Custodian)
	a.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	a.Value = in.Value.Round(2)
	if in.Status != "" {
		a.Status = in.Status
	}
}

func (r *Registry) validateAsset(ctx context.Context, a models.Asset, files Attachments) error {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return err
	}
	err = registry.ValidateAsset(a, statuses)
	var fields []string
	var ve *registry.ValidationError
	if errors.As(err, &ve) {
		fields = ve.Fields
	} else if err != nil {
		return err
	}
	if files.Invoice != nil && !isPDF(files.Invoice) {
		fields = append(fields, "invoice_file")
	}
	if files.Photo != nil && !isImage(files.Photo) {
		fields = append(fields, "photo_file")
	}
	if len(fields) > 0 {
		return &registry.ValidationError{Fields: fields}
	}
	return nil
}

// storeAttachments uploads the invoice and the photo and records their links
// on a. Nothing is rolled back when the second upload fails.
func (r *Registry) storeAttachments(ctx context.Context, a *models.Asset, files Attachments) error {
	if files.Invoice == nil && files.Photo == nil {
		return nil
	}
	if r.blobs == nil {
		return &registry.UploadError{Name: "attachment", Err: errors.New("no blob storage configured")}
	}
	now := r.now()
	if f := files.Invoice; f != nil {
		name := blob.ObjectName(blob.BucketInvoices, "NF", a.Site, ".pdf", now)
		url, err := r.blobs.Upload(ctx, f.Data, name, "application/pdf")
		if err != nil {
			return &registry.UploadError{Name: name, Err: err}
		}
		a.InvoiceURL = url
	}
	if f := files.Photo; f != nil {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		if ext == "" {
			ext = ".jpg"
		}
		name := blob.ObjectName(blob.BucketPhotos, "FOTO", a.Site, ext, now)
		url, err := r.blobs.Upload(ctx, f.Data, name, photoContentType(f, ext))
		if err != nil {
			return &registry.UploadError{Name: name, Err: err}
		}
		a.PhotoURL = url
	}
	return nil
}

func isPDF(f *Attachment) bool {
	return f.ContentType == "application/pdf" || strings.EqualFold(filepath.Ext(f.Filename), ".pdf")
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func isImage(f *Attachment) bool {
	return strings.HasPrefix(f.ContentType, "image/") || imageExts[strings.ToLower(filepath.Ext(f.Filename))]
}

func photoContentType(f *Attachment, ext string) string {
	if strings.HasPrefix(f.ContentType, "image/") {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
