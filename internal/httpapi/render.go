package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/internal/slug"
	"github.com/canopysites/canopy/store"
	"github.com/canopysites/canopy/tenant"
)

// pageDocument is the public rendering payload: the page plus the tenant
// branding the renderer needs to draw it.
type pageDocument struct {
	Tenant pageTenant    `json:"tenant"`
	Page   *content.Node `json:"page"`
}

type pageTenant struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Theme tenant.Theme `json:"theme"`
}

// handleRender resolves a public URL to its page document. Old slugs answer
// with a permanent redirect to the current one; anything not published is
// indistinguishable from absent.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	path := slug.Normalize(chi.URLParam(r, "*"))

	t, err := s.tenants.Get(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	if t.Status != "active" {
		writeError(w, store.ErrNotFound)
		return
	}

	route, err := s.pages.Resolve(r.Context(), tenantID, path)
	if err != nil {
		writeError(w, err)
		return
	}
	if route.IsRedirect {
		http.Redirect(w, r, "/r/"+tenantID+route.RedirectTo, http.StatusMovedPermanently)
		return
	}

	node, err := s.pages.Get(r.Context(), tenantID, route.TargetNodeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if node.Status != content.StatusPublished {
		writeError(w, store.ErrNotFound)
		return
	}

	writeJSON(w, http.StatusOK, pageDocument{
		Tenant: pageTenant{ID: t.ID, Name: t.Name, Theme: t.Theme},
		Page:   node,
	})
}
