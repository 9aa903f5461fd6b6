package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"obra-patrimonio/internal/config"
	"obra-patrimonio/internal/handlers"
	"obra-patrimonio/internal/middleware"
	"obra-patrimonio/internal/models"
	"obra-patrimonio/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sessionMaxAge = 12 * 60 * 60

// formatBRL renders d as "R$ 1.234,56".
func formatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + b.String() + "," + frac
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}

func formatDays(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func movementLabel(t models.MovementType) string {
	switch t {
	case models.MovementEntry:
		return "Entrada"
	case models.MovementExit:
		return "Saída"
	}
	return string(t)
}

func rentalLabel(s models.RentalStatus) string {
	switch s {
	case models.RentalActive:
		return "Ativa"
	case models.RentalMaintenance:
		return "Em manutenção"
	case models.RentalReturned:
		return "Devolvida"
	}
	return string(s)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":         formatBRL,
		"date":          formatDate,
		"dateTime":      formatDateTime,
		"days":          formatDays,
		"movementLabel": movementLabel,
		"rentalLabel":   rentalLabel,
	}
}

func loadTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs()).ParseFS(web.Templates, "templates/*.html")
}

func NewRouter(cfg *config.Config, h *handlers.Handler, tokens *middleware.Tokens, log *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	if cfg.BlobBackend == "local" && cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("obra_session", store))
	apiCORS := middleware.SetupCORS(cfg.AllowedOrigins)
	r.Use(func(c *gin.Context) {
		// preflights have no route, so this runs before routing
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			apiCORS(c)
		}
	})
	r.Use(middleware.InjectSession())

	r.GET("/", h.IndexPage)
	r.GET("/health", handlers.Health)

	// AUTH
	r.GET("/login", h.ShowLogin)
	r.POST("/login/site", h.LoginSite)
	r.POST("/login/admin", h.LoginAdmin)
	r.GET("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.POST("/view-site", middleware.RequireAdmin(), h.SetViewSite)

	// ITENS
	auth.GET("/assets", h.ListAssets)
	auth.GET("/assets/new", h.ShowNewAsset)
	auth.POST("/assets/new", h.CreateAsset)
	auth.GET("/assets/export.xlsx", h.ExportAssetsXLSX)
	auth.GET("/assets/export.pdf", h.ExportAssetsPDF)
	auth.GET("/assets/:id/edit", h.ShowEditAsset)
	auth.POST("/assets/:id/edit", h.UpdateAsset)
	auth.POST("/assets/:id/delete", h.DeleteAsset)
	auth.GET("/assets/:id/movements", h.ShowMovements)
	auth.POST("/assets/:id/movements", h.CreateMovement)
	auth.GET("/assets/:id/sheet.pdf", h.AssetSheet)

	// LOCAÇÕES
	auth.GET("/rentals", h.ListRentals)
	auth.GET("/rentals/new", h.ShowNewRental)
	auth.POST("/rentals/new", h.CreateRental)
	auth.GET("/rentals/export.xlsx", h.ExportRentalsXLSX)
	auth.GET("/rentals/export.pdf", h.ExportRentalsPDF)
	auth.GET("/rentals/:id/edit", h.ShowEditRental)
	auth.POST("/rentals/:id/edit", h.UpdateRental)
	auth.POST("/rentals/:id/delete", h.DeleteRental)

	auth.GET("/dashboard", h.Dashboard)

	// AUDITORIA
	auth.GET("/audit", middleware.RequireAdmin(), h.ListAuditLogs)

	// JSON API
	api := r.Group("/api")
	api.POST("/login", h.APILogin)

	secured := api.Group("")
	secured.Use(tokens.RequireToken())
	secured.GET("/assets", h.APIListAssets)
	secured.POST("/assets", h.APICreateAsset)
	secured.GET("/assets/:id", h.APIGetAsset)
	secured.PUT("/assets/:id", h.APIUpdateAsset)
	secured.DELETE("/assets/:id", h.APIDeleteAsset)
	secured.GET("/assets/:id/movements", h.APIListMovements)
	secured.POST("/assets/:id/movements", h.APICreateMovement)
	secured.GET("/rentals", h.APIListRentals)
	secured.POST("/rentals", h.APICreateRental)
	secured.GET("/dashboard", h.APIDashboard)

	return r, nil
}
