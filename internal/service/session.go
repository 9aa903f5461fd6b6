package service

import "obra-patrimonio/internal/registry"

// Session is the caller's identity for one request. It is rebuilt from the
// cookie or token on every request; nothing about it is kept in the process.
type Session struct {
	Admin bool
	// Site is the obra a site user logged into. Empty for admins.
	Site string
	// ViewSite is the admin's site selector; empty or "Todas" shows every site.
	ViewSite string
}

// Scope is the only site the session sees, or "" for all sites.
func (s Session) Scope() string {
	if !s.Admin {
		return s.Site
	}
	if registry.IsAll(s.ViewSite) {
		return ""
	}
	return s.ViewSite
}

// CanAccess reports whether the session may read or change records of site.
// Admins reach every site regardless of the selector.
func (s Session) CanAccess(site string) bool {
	return s.Admin || (s.Site != "" && s.Site == site)
}

func (s Session) Actor() string {
	if s.Admin {
		return "admin"
	}
	return "obra:" + s.Site
}

func (s Session) inScope(site string) bool {
	scope := s.Scope()
	if scope == "" {
		return s.Admin
	}
	return scope == site
}
