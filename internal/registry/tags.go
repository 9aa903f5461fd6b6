package registry

import (
	"math/big"
	"strings"

	"obra-patrimonio/internal/models"
)

// AllocateOrValidateTag returns the tag to store for an asset of site.
//
// An empty (after trimming) request generates max(numeric tags of the site)+1,
// or "1" when the site has no numeric tag. Non-numeric tags are ignored and
// gaps are never reused. A non-empty request is returned trimmed but otherwise
// verbatim, unless another asset of the same site already holds it. editingID
// excludes the asset being edited from both the check and the generator: a
// blank tag on edit is numbered from the other assets of the site only.
// Numeric tags have no upper bound.
//
// existing must be a fresh read: there is no locking here, the (site, tag)
// unique index in the database is the final check.
func AllocateOrValidateTag(site, requested string, existing []models.Asset, editingID *uint) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nextTag(site, existing, editingID), nil
	}

	for _, a := range existing {
		if a.Site != site {
			continue
		}
		if editingID != nil && a.ID == *editingID {
			continue
		}
		if strings.TrimSpace(a.Tag) == requested {
			return "", &DuplicateTagError{Site: site, Tag: requested}
		}
	}
	return requested, nil
}

func nextTag(site string, existing []models.Asset, editingID *uint) string {
	var highest *big.Int
	for _, a := range existing {
		if a.Site != site {
			continue
		}
		if editingID != nil && a.ID == *editingID {
			continue
		}
		n, ok := new(big.Int).SetString(strings.TrimSpace(a.Tag), 10)
		if !ok {
			continue
		}
		if highest == nil || n.Cmp(highest) > 0 {
			highest = n
		}
	}
	if highest == nil {
		return "1"
	}
	return highest.Add(highest, big.NewInt(1)).String()
}
