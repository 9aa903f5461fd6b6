package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"obra-patrimonio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 12 * time.Hour

type tokenClaims struct {
	Admin bool   `json:"admin,omitempty"`
	Site  string `json:"site,omitempty"`
	View  string `json:"view_site,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and checks the HS256 bearer tokens of the JSON API.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(sess service.Session) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	subject := "obra:" + sess.Site
	if sess.Admin {
		subject = "admin"
	}
	claims := &tokenClaims{
		Admin: sess.Admin,
		Site:  sess.Site,
		View:  sess.ViewSite,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	return signed, exp, err
}

func (t *Tokens) Parse(raw string) (service.Session, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return service.Session{}, err
	}
	if !token.Valid || (!claims.Admin && claims.Site == "") {
		return service.Session{}, jwt.ErrTokenInvalidClaims
	}
	return service.Session{Admin: claims.Admin, Site: claims.Site, ViewSite: claims.View}, nil
}

// RequireToken authenticates API requests from the Authorization header.
// The "site" query parameter narrows an admin token to one site.
func (t *Tokens) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		sess, err := t.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if site := c.Query("site"); sess.Admin && site != "" {
			sess.ViewSite = site
		}
		c.Set(currentSessionKey, sess)
		c.Next()
	}
}
