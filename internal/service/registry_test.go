package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"obra-patrimonio/internal/blob"
	"obra-patrimonio/internal/database"
	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/store"
)

var (
	adminSess = Session{Admin: true, ViewSite: registry.AllSentinel}
	towerA    = Session{Site: "Tower-A"}
	towerB    = Session{Site: "Tower-B"}
)

type fixture struct {
	reg     *Registry
	db      *gorm.DB
	store   store.Store
	uploads string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	db, err := database.Open("sqlite", ":memory:", log)
	require.NoError(t, err)
	require.NoError(t, database.SeedStatuses(db, []string{"ATIVO", "EMPRESTADO", "MANUTENÇÃO", "BAIXADO"}, log))
	require.NoError(t, database.SeedSites(db, map[string]string{"Tower-A": "1234", "Tower-B": "abcd"}, log))

	dir := t.TempDir()
	uploader, err := blob.NewLocalStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	cached := store.NewCached(store.NewGormStore(db), store.NewMemoryKV(), time.Minute, log)
	reg, err := New(Options{
		Store:         cached,
		Fresh:         cached.Inner(),
		Blobs:         uploader,
		Labels:        registry.StatusLabels{Available: "ATIVO", External: "EMPRESTADO"},
		AdminPassword: "s3cret",
		Logger:        log,
	})
	require.NoError(t, err)
	reg.now = func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC) }
	return &fixture{reg: reg, db: db, store: cached, uploads: dir}
}

func drill(site, tag string) AssetInput {
	return AssetInput{
		Site:          site,
		Tag:           tag,
		Name:          "Furadeira",
		Location:      "Almoxarifado",
		Custodian:     "João",
		InvoiceNumber: "NF-100",
		Value:         decimal.RequireFromString("350.50"),
		Status:        "ATIVO",
	}
}

func TestAuthenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sess, err := f.reg.Authenticate(ctx, "Tower-A", "1234")
	require.NoError(t, err)
	assert.Equal(t, towerA, sess)

	_, err = f.reg.Authenticate(ctx, "Tower-A", "abcd")
	assert.ErrorIs(t, err, registry.ErrInvalidCredentials)
	_, err = f.reg.Authenticate(ctx, "Unknown", "1234")
	assert.ErrorIs(t, err, registry.ErrInvalidCredentials)

	admin, err := f.reg.AuthenticateAdmin("s3cret")
	require.NoError(t, err)
	assert.True(t, admin.Admin)
	assert.Equal(t, "", admin.Scope())

	_, err = f.reg.AuthenticateAdmin("wrong")
	assert.ErrorIs(t, err, registry.ErrInvalidCredentials)
}

func TestSessionScope(t *testing.T) {
	assert.Equal(t, "Tower-A", towerA.Scope())
	assert.Equal(t, "", adminSess.Scope())
	assert.Equal(t, "Tower-B", Session{Admin: true, ViewSite: "Tower-B"}.Scope())
	assert.True(t, Session{Admin: true, ViewSite: "Tower-B"}.CanAccess("Tower-A"))
	assert.False(t, towerA.CanAccess("Tower-B"))
	assert.False(t, Session{}.CanAccess(""))
	assert.Equal(t, "obra:Tower-A", towerA.Actor())
	assert.Equal(t, "admin", adminSess.Actor())
}

func TestRegisterAsset_AllocatesPerSite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a1, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "1", a1.Tag)
	assert.Equal(t, "Tower-A", a1.Site)

	a2, err := f.reg.RegisterAsset(ctx, towerA, drill("Tower-B", ""), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "2", a2.Tag)
	assert.Equal(t, "Tower-A", a2.Site, "site users always write to their own site")

	b1, err := f.reg.RegisterAsset(ctx, adminSess, drill("Tower-B", ""), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "1", b1.Tag)

	_, err = f.reg.RegisterAsset(ctx, towerA, drill("", " 2 "), Attachments{})
	var dup *registry.DuplicateTagError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Tower-A", dup.Site)

	custom, err := f.reg.RegisterAsset(ctx, towerA, drill("", "10"), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "10", custom.Tag)

	next, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "11", next.Tag)
}

func TestRegisterAsset_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := drill("", "")
	in.Name = " "
	in.Status = "UNKNOWN"
	_, err := f.reg.RegisterAsset(ctx, towerA, in, Attachments{})
	var ve *registry.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "status"}, ve.Fields)

	_, err = f.reg.RegisterAsset(ctx, adminSess, drill(registry.AllSentinel, ""), Attachments{})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"site"}, ve.Fields)

	_, err = f.reg.RegisterAsset(ctx, adminSess, drill("Nowhere", ""), Attachments{})
	require.ErrorAs(t, err, &ve)

	bad := Attachments{Invoice: &Attachment{Filename: "nf.txt", ContentType: "text/plain", Data: []byte("x")}}
	_, err = f.reg.RegisterAsset(ctx, towerA, drill("", ""), bad)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"invoice_file"}, ve.Fields)

	assets, err := f.store.Assets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets, "nothing is written when validation fails")
}

func TestRegisterAsset_StoresAttachments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	files := Attachments{
		Invoice: &Attachment{Filename: "nota.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
		Photo:   &Attachment{Filename: "foto.PNG", Data: []byte("png")},
	}
	a, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), files)
	require.NoError(t, err)

	assert.Contains(t, a.InvoiceURL, "/uploads/notas-fiscais/NF_tower-a_20260310-093000_")
	assert.Contains(t, a.PhotoURL, "/uploads/fotos-patrimonio/FOTO_tower-a_20260310-093000_")
	assert.Equal(t, ".png", filepath.Ext(a.PhotoURL))

	invoices, err := os.ReadDir(filepath.Join(f.uploads, blob.BucketInvoices))
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

type failingUploader struct{}

func (failingUploader) Upload(context.Context, []byte, string, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestRegisterAsset_UploadFailureAbandons(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.reg.blobs = failingUploader{}

	files := Attachments{Invoice: &Attachment{Filename: "nota.pdf", Data: []byte("%PDF")}}
	_, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), files)
	var ue *registry.UploadError
	require.ErrorAs(t, err, &ue)

	assets, err := f.store.Assets(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestUpdateAsset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a1, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	_, err = f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)

	in := drill("Tower-B", "1")
	in.Name = "Furadeira de impacto"
	updated, err := f.reg.UpdateAsset(ctx, towerA, a1.ID, in, Attachments{})
	require.NoError(t, err, "keeping its own tag is not a duplicate")
	assert.Equal(t, "Furadeira de impacto", updated.Name)
	assert.Equal(t, "Tower-A", updated.Site, "site is immutable on edit")

	_, err = f.reg.UpdateAsset(ctx, towerA, a1.ID, drill("", "2"), Attachments{})
	var dup *registry.DuplicateTagError
	require.ErrorAs(t, err, &dup)

	_, err = f.reg.UpdateAsset(ctx, towerB, a1.ID, drill("", "1"), Attachments{})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	got, err := f.reg.GetAsset(ctx, towerA, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", got.Tag)
	assert.Equal(t, "Furadeira de impacto", got.Name)
}

func TestUpdateAsset_BlankTagKeepsHighestNumber(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	a2, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	require.Equal(t, "2", a2.Tag)

	updated, err := f.reg.UpdateAsset(ctx, towerA, a2.ID, drill("", ""), Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Tag, "the edited asset does not count against itself")
}

func TestRegisterAsset_DefaultStatusFollowsSite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, database.SeedStatuses(f.db, []string{"DISPONÍVEL"}, zap.NewNop()))
	require.NoError(t, f.db.Model(&models.Site{}).Where("name = ?", "Tower-B").
		Update("available_status", "DISPONÍVEL").Error)

	in := drill("", "")
	in.Status = ""
	b, err := f.reg.RegisterAsset(ctx, towerB, in, Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "DISPONÍVEL", b.Status)

	a, err := f.reg.RegisterAsset(ctx, towerA, in, Attachments{})
	require.NoError(t, err)
	assert.Equal(t, "ATIVO", a.Status, "sites without an override use the configured label")
}

func TestDeleteAsset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)

	assert.ErrorIs(t, f.reg.DeleteAsset(ctx, towerA, a.ID, false), registry.ErrUnconfirmed)
	assert.ErrorIs(t, f.reg.DeleteAsset(ctx, towerB, a.ID, true), registry.ErrNotFound)
	require.NoError(t, f.reg.DeleteAsset(ctx, towerA, a.ID, true))

	_, err = f.reg.GetAsset(ctx, adminSess, a.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	again, err := f.reg.RegisterAsset(ctx, towerA, drill("", "1"), Attachments{})
	require.NoError(t, err, "a deleted tag can be used again")
	assert.Equal(t, "1", again.Tag)
}

func TestListAssets_ScopesAndFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	saw := drill("", "")
	saw.Name = "Serra circular"
	saw.Status = "EMPRESTADO"
	_, err = f.reg.RegisterAsset(ctx, towerA, saw, Attachments{})
	require.NoError(t, err)
	_, err = f.reg.RegisterAsset(ctx, towerB, drill("", ""), Attachments{})
	require.NoError(t, err)

	all, err := f.reg.ListAssets(ctx, adminSess, registry.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.reg.ListAssets(ctx, towerA, registry.AssetFilter{Site: "Tower-B"})
	require.NoError(t, err)
	assert.Len(t, mine, 2, "site users never see other sites")

	viewB, err := f.reg.ListAssets(ctx, Session{Admin: true, ViewSite: "Tower-B"}, registry.AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, viewB, 1)

	found, err := f.reg.ListAssets(ctx, adminSess, registry.AssetFilter{Query: "SERRA", Status: "EMPRESTADO", Site: "Tower-A"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Serra circular", found[0].Name)
}

func TestRegisterMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)

	_, err = f.reg.RegisterMovement(ctx, towerA, a.ID, MovementInput{Type: models.MovementExit, Custodian: "Maria"})
	require.NoError(t, err)
	got, err := f.reg.GetAsset(ctx, towerA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "EMPRESTADO", got.Status)

	f.reg.now = func() time.Time { return time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC) }
	_, err = f.reg.RegisterMovement(ctx, towerA, a.ID, MovementInput{Type: models.MovementEntry})
	require.NoError(t, err)
	got, err = f.reg.GetAsset(ctx, towerA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ATIVO", got.Status)

	_, err = f.reg.RegisterMovement(ctx, towerA, a.ID, MovementInput{Type: "LOST"})
	var ve *registry.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.reg.RegisterMovement(ctx, towerB, a.ID, MovementInput{Type: models.MovementExit})
	assert.ErrorIs(t, err, registry.ErrNotFound)

	history, err := f.reg.AssetHistory(ctx, towerA, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.MovementEntry, history[0].Type, "newest first")
	assert.Equal(t, models.MovementExit, history[1].Type)
	assert.Equal(t, "Maria", history[1].Custodian)
}

type statusFailStore struct {
	store.Store
}

func (statusFailStore) UpdateAssetStatus(context.Context, uint, string) error {
	return &registry.StoreError{Op: "update asset status", Err: errors.New("connection reset")}
}

func TestRegisterMovement_StatusFailureKeepsMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)

	f.reg.store = statusFailStore{Store: f.store}
	m, err := f.reg.RegisterMovement(ctx, towerA, a.ID, MovementInput{Type: models.MovementExit})
	var se *registry.StoreError
	require.ErrorAs(t, err, &se)
	require.NotNil(t, m)

	movements, err := f.store.Movements(ctx)
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	got, err := f.reg.GetAsset(ctx, towerA, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ATIVO", got.Status)
}

func rentalInput() RentalInput {
	return RentalInput{
		Equipment:   "Andaime",
		Responsible: "Carlos",
		Quantity:    4,
		Unit:        "mês",
		UnitValue:   decimal.RequireFromString("120.00"),
		Contract:    "CT-7",
		Status:      models.RentalActive,
	}
}

func TestRentals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	rt, err := f.reg.RegisterRental(ctx, towerA, rentalInput())
	require.NoError(t, err)
	assert.Equal(t, "Tower-A", rt.Site)
	assert.True(t, decimal.RequireFromString("480").Equal(rt.Total))

	in := rentalInput()
	in.Quantity = 0
	_, err = f.reg.RegisterRental(ctx, towerA, in)
	var ve *registry.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"quantity"}, ve.Fields)

	in = rentalInput()
	in.Quantity = 2
	in.Status = models.RentalMaintenance
	updated, err := f.reg.UpdateRental(ctx, towerA, rt.ID, in)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("240").Equal(updated.Total))

	moved := rentalInput()
	moved.Site = "Tower-B"
	updated, err = f.reg.UpdateRental(ctx, adminSess, rt.ID, moved)
	require.NoError(t, err)
	assert.Equal(t, "Tower-B", updated.Site)

	_, err = f.reg.GetRental(ctx, towerA, rt.ID)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	list, err := f.reg.ListRentals(ctx, towerB, registry.RentalFilter{Query: "andaime"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, f.reg.DeleteRental(ctx, towerB, rt.ID, false), registry.ErrUnconfirmed)
	require.NoError(t, f.reg.DeleteRental(ctx, towerB, rt.ID, true))
	list, err = f.reg.ListRentals(ctx, adminSess, registry.RentalFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDashboardAndAudit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.reg.RegisterAsset(ctx, towerA, drill("", ""), Attachments{})
	require.NoError(t, err)
	_, err = f.reg.RegisterAsset(ctx, towerB, drill("", ""), Attachments{})
	require.NoError(t, err)
	_, err = f.reg.RegisterRental(ctx, towerA, rentalInput())
	require.NoError(t, err)

	sum, err := f.reg.Dashboard(ctx, towerA)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalItems)
	assert.True(t, decimal.RequireFromString("350.50").Equal(sum.TotalValue))
	assert.Equal(t, 1, sum.ActiveRentals)

	sum, err = f.reg.Dashboard(ctx, adminSess)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalItems)

	_, err = f.reg.AuditTrail(ctx, towerA)
	assert.ErrorIs(t, err, registry.ErrForbidden)

	logs, err := f.reg.AuditTrail(ctx, adminSess)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "rental", logs[0].Entity)
	assert.Equal(t, "obra:Tower-A", logs[0].Actor)

	logs, err = f.reg.AuditTrail(ctx, Session{Admin: true, ViewSite: "Tower-B"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "create", logs[0].Action)
}
