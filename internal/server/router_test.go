package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"obra-patrimonio/internal/blob"
	"obra-patrimonio/internal/config"
	"obra-patrimonio/internal/database"
	"obra-patrimonio/internal/handlers"
	"obra-patrimonio/internal/middleware"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/service"
	"obra-patrimonio/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()

	db, err := database.Open("sqlite", ":memory:", log)
	require.NoError(t, err)
	require.NoError(t, database.SeedStatuses(db, []string{"ATIVO", "EMPRESTADO"}, log))
	require.NoError(t, database.SeedSites(db, map[string]string{"Tower-A": "1234", "Tower-B": "abcd"}, log))

	cfg := &config.Config{
		SessionSecret: "test-session-secret",
		BlobBackend:   "local",
		UploadDir:     t.TempDir(),
	}
	uploader, err := blob.NewLocalStore(cfg.UploadDir, "")
	require.NoError(t, err)

	gormStore := store.NewGormStore(db)
	reg, err := service.New(service.Options{
		Store:         store.NewCached(gormStore, store.NewMemoryKV(), time.Minute, log),
		Fresh:         gormStore,
		Blobs:         uploader,
		Labels:        registry.StatusLabels{Available: "ATIVO", External: "EMPRESTADO"},
		AdminPassword: "admin-pass",
		Logger:        log,
	})
	require.NoError(t, err)

	tokens := middleware.NewTokens("jwt-secret", time.Hour)
	r, err := NewRouter(cfg, handlers.New(reg, tokens, log), tokens, log)
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newClient keeps cookies and stops at redirects so tests can inspect them.
func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func loginSite(t *testing.T, c *http.Client, base, site, code string) {
	t.Helper()
	resp, err := c.PostForm(base+"/login/site", url.Values{"site": {site}, "code": {code}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/assets", resp.Header.Get("Location"))
}

func assetMultipart(t *testing.T, fields map[string]string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo_file", "foto.png")
		require.NoError(t, err)
		_, err = fw.Write(photo)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func drillFields(tag string) map[string]string {
	return map[string]string{
		"tag":            tag,
		"name":           "Furadeira",
		"location":       "Almoxarifado",
		"custodian":      "João",
		"invoice_number": "NF-100",
		"value":          "1.250,90",
		"status":         "ATIVO",
	}
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, "ok", readBody(t, resp))
}

func TestRedirectsToLogin(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/assets")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = c.Get(srv.URL + "/login")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Tower-A")
	assert.Contains(t, body, "Tower-B")
}

func TestSiteLoginRejectsWrongCode(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)

	resp, err := c.PostForm(srv.URL+"/login/site", url.Values{"site": {"Tower-A"}, "code": {"nope"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Código de acesso incorreto")
}

func TestAssetFlow(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)
	loginSite(t, c, srv.URL, "Tower-A", "1234")

	body, ct := assetMultipart(t, drillFields(""), []byte("fake png"))
	resp, err := c.Post(srv.URL+"/assets/new", ct, body)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/assets?notice="))

	body, ct = assetMultipart(t, drillFields(" 1 "), nil)
	resp, err = c.Post(srv.URL+"/assets/new", ct, body)
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, page, "já existe na obra Tower-A")

	resp, err = c.Get(srv.URL + "/assets?view=cards")
	require.NoError(t, err)
	page = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Furadeira")
	assert.Contains(t, page, "R$ 1.250,90")
	assert.Contains(t, page, "/uploads/fotos-patrimonio/FOTO_tower-a_")

	resp, err = c.Get(srv.URL + "/assets/export.xlsx?q=fura")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "patrimonio_tower_a_")

	resp, err = c.PostForm(srv.URL+"/assets/1/movements", url.Values{"type": {"EXIT"}, "custodian": {"Maria"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = c.Get(srv.URL + "/assets/1/movements")
	require.NoError(t, err)
	page = readBody(t, resp)
	assert.Contains(t, page, "Saída")
	assert.Contains(t, page, "EMPRESTADO")

	resp, err = c.PostForm(srv.URL+"/assets/1/delete", url.Values{})
	require.NoError(t, err)
	page = readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, page, "Confirme a exclusão")

	resp, err = c.PostForm(srv.URL+"/assets/1/delete", url.Values{"confirm": {"yes"}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestOtherSiteCannotSeeAsset(t *testing.T) {
	srv := setupServer(t)
	a := newClient(t)
	loginSite(t, a, srv.URL, "Tower-A", "1234")

	body, ct := assetMultipart(t, drillFields(""), nil)
	resp, err := a.Post(srv.URL+"/assets/new", ct, body)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	b := newClient(t)
	loginSite(t, b, srv.URL, "Tower-B", "abcd")
	resp, err = b.Get(srv.URL + "/assets/1/edit")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = b.Get(srv.URL + "/audit")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminAuditAndSelector(t *testing.T) {
	srv := setupServer(t)
	c := newClient(t)

	resp, err := c.PostForm(srv.URL+"/login/admin", url.Values{"password": {"admin-pass"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = c.PostForm(srv.URL+"/rentals/new", url.Values{
		"site": {"Tower-B"}, "equipment": {"Andaime"}, "quantity": {"3"},
		"unit_value": {"100"}, "status": {"ACTIVE"}, "start_date": {"2026-03-01"},
	})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = c.PostForm(srv.URL+"/view-site", url.Values{"site": {"Tower-A"}, "next": {"/rentals"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, "/rentals", resp.Header.Get("Location"))

	resp, err = c.Get(srv.URL + "/rentals")
	require.NoError(t, err)
	assert.NotContains(t, readBody(t, resp), "Andaime")

	resp, err = c.PostForm(srv.URL+"/view-site", url.Values{"site": {"Todas"}})
	require.NoError(t, err)
	readBody(t, resp)

	resp, err = c.Get(srv.URL + "/rentals")
	require.NoError(t, err)
	page := readBody(t, resp)
	assert.Contains(t, page, "Andaime")
	assert.Contains(t, page, "R$ 300,00")

	resp, err = c.Get(srv.URL + "/audit")
	require.NoError(t, err)
	page = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "rental #1")

	resp, err = c.Get(srv.URL + "/dashboard")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func apiDo(t *testing.T, method, u, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, u, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAPI(t *testing.T) {
	srv := setupServer(t)

	resp := apiDo(t, http.MethodGet, srv.URL+"/api/assets", "", nil)
	readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = apiDo(t, http.MethodPost, srv.URL+"/api/login", "", map[string]string{"site": "Tower-A", "code": "1234"})
	var login struct {
		Token string `json:"token"`
		Site  string `json:"site"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "Tower-A", login.Site)

	resp = apiDo(t, http.MethodPost, srv.URL+"/api/assets", login.Token, map[string]any{
		"name": "Betoneira", "location": "Pátio", "custodian": "Ana",
		"invoice_number": "NF-9", "value": 4200.5, "status": "ATIVO",
	})
	var created struct {
		ID    uint            `json:"id"`
		Tag   string          `json:"tag"`
		Value decimal.Decimal `json:"value"`
	}
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &created))
	assert.Equal(t, "1", created.Tag)
	assert.True(t, decimal.RequireFromString("4200.50").Equal(created.Value))

	resp = apiDo(t, http.MethodPost, srv.URL+"/api/assets", login.Token, map[string]any{"name": "Sem dados"})
	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Preencha corretamente")

	resp = apiDo(t, http.MethodPost, srv.URL+"/api/assets/1/movements", login.Token, map[string]string{"type": "exit"})
	readBody(t, resp)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = apiDo(t, http.MethodGet, srv.URL+"/api/assets?status=EMPRESTADO", login.Token, nil)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &list))
	assert.Equal(t, 1, list.Count)

	resp = apiDo(t, http.MethodDelete, srv.URL+"/api/assets/1", login.Token, nil)
	readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = apiDo(t, http.MethodDelete, srv.URL+"/api/assets/1?confirm=true", login.Token, nil)
	readBody(t, resp)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = apiDo(t, http.MethodGet, srv.URL+"/api/dashboard", login.Token, nil)
	var sum struct {
		TotalItems int `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &sum))
	assert.Equal(t, 0, sum.TotalItems)
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", formatBRL(decimal.Zero))
	assert.Equal(t, "R$ 999,90", formatBRL(decimal.RequireFromString("999.9")))
	assert.Equal(t, "R$ 1.234.567,89", formatBRL(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "-R$ 1.000,00", formatBRL(decimal.NewFromInt(-1000)))
}
