package blob

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	BucketInvoices = "notas-fiscais"
	BucketPhotos   = "fotos-patrimonio"
)

// Uploader stores a file and returns a URL that can be linked from an asset.
// Uploading the same name twice replaces the previous content.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (string, error)
}

// ObjectName builds a unique object name such as
// "notas-fiscais/NF_tower-a_20260115-093000_1b4e28ba.pdf".
func ObjectName(bucket, prefix, site, ext string, at time.Time) string {
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s_%s_%s_%s%s", bucket, prefix, slug(site), at.Format("20060102-150405"), id, strings.ToLower(ext))
}

func slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "obra"
	}
	return out
}
