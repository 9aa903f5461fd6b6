package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBDSN         string
	ServerPort    string
	SessionSecret string
	JWTSecret     string

	AdminPassword string
	// SiteCodes maps a site (obra) name to its access code.
	SiteCodes map[string]string

	StatusLabels    []string
	StatusAvailable string
	StatusExternal  string

	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BlobBackend          string // "local" or "drive"
	UploadDir            string
	PublicBaseURL        string
	DriveCredentialsPath string
	DriveCredentialsJSON string
	DriveFolderID        string

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:             os.Getenv("DB_DRIVER"),
		DBDSN:                os.Getenv("DB_DSN"),
		ServerPort:           os.Getenv("SERVER_PORT"),
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		SiteCodes:            ParseSiteCodes(os.Getenv("SITE_CODES")),
		StatusLabels:         splitList(os.Getenv("STATUS_LABELS"), ","),
		StatusAvailable:      strings.TrimSpace(os.Getenv("STATUS_AVAILABLE")),
		StatusExternal:       strings.TrimSpace(os.Getenv("STATUS_EXTERNAL")),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		BlobBackend:          os.Getenv("BLOB_BACKEND"),
		UploadDir:            os.Getenv("UPLOAD_DIR"),
		PublicBaseURL:        strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		DriveCredentialsPath: os.Getenv("GOOGLE_DRIVE_CREDENTIALS_PATH"),
		DriveCredentialsJSON: os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON"),
		DriveFolderID:        os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
		AllowedOrigins:       splitList(os.Getenv("ALLOWED_ORIGINS"), ","),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		LogFormat:            os.Getenv("LOG_FORMAT"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD is not set")
	}

	cfg.CacheTTL = 30 * time.Second
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid CACHE_TTL %q: %v", v, err)
		}
		cfg.CacheTTL = ttl
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid REDIS_DB %q: %v", v, err)
		}
		cfg.RedisDB = n
	}

	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DBDriver == "" {
		c.DBDriver = "postgres"
	}
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = c.SessionSecret
	}
	if len(c.StatusLabels) == 0 {
		c.StatusLabels = []string{"ATIVO", "MANUTENÇÃO", "EMPRESTADO", "DESCARTADO"}
	}
	if c.StatusAvailable == "" {
		c.StatusAvailable = "ATIVO"
	}
	if c.StatusExternal == "" {
		c.StatusExternal = "EMPRESTADO"
	}
	if c.BlobBackend == "" {
		c.BlobBackend = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = "./uploads"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
}

// ParseSiteCodes reads "Tower-A=1234;Tower-B=abcd". Entries without "=" or
// with an empty name are skipped.
func ParseSiteCodes(raw string) map[string]string {
	codes := map[string]string{}
	for _, entry := range splitList(raw, ";") {
		name, code, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		codes[name] = strings.TrimSpace(code)
	}
	return codes
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
