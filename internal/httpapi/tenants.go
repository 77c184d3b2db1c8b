package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canopysites/canopy/tenant"
)

type provisionTenantRequest struct {
	ID     string        `json:"id" validate:"omitempty,max=64"`
	Name   string        `json:"name" validate:"required,max=128"`
	Domain string        `json:"domain" validate:"omitempty,fqdn"`
	Theme  *tenant.Theme `json:"theme" validate:"omitempty"`
}

// handleProvisionTenant creates a tenant. Only super admins may provision;
// passing no required roles and no target tenant means everyone else is
// rejected by the scope check.
func (s *Server) handleProvisionTenant(w http.ResponseWriter, r *http.Request) {
	p, err := s.authorize(r, nil, "")
	if err != nil {
		writeError(w, err)
		return
	}

	var req provisionTenantRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.tenants.Provision(r.Context(), tenant.ProvisionInput{
		ID:      req.ID,
		Name:    req.Name,
		Domain:  req.Domain,
		Theme:   req.Theme,
		ActorID: p.Subject,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, t.ID, "tenant.provision", map[string]any{"name": t.Name})
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, err := s.authorize(r, rolesRead, tenantID); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.tenants.Get(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateTenantRequest struct {
	Name         *string              `json:"name" validate:"omitempty,max=128"`
	Domain       *string              `json:"domain" validate:"omitempty,fqdn"`
	Status       *string              `json:"status" validate:"omitempty,oneof=active suspended"`
	Plan         *string              `json:"plan" validate:"omitempty,oneof=free starter business"`
	Theme        *tenant.Theme        `json:"theme"`
	Integrations *tenant.Integrations `json:"integrations"`
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesAdmin, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateTenantRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := s.tenants.Update(r.Context(), tenant.UpdateInput{
		TenantID:     tenantID,
		Name:         req.Name,
		Domain:       req.Domain,
		Status:       req.Status,
		Plan:         req.Plan,
		Theme:        req.Theme,
		Integrations: req.Integrations,
		ActorID:      p.Subject,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "tenant.update", nil)
	writeJSON(w, http.StatusOK, t)
}
