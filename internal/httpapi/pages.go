package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canopysites/canopy/content"
)

type createPageRequest struct {
	Title  string          `json:"title" validate:"required,max=256"`
	Slug   string          `json:"slug" validate:"omitempty,max=512"`
	Blocks []content.Block `json:"blocks"`
	Status content.Status  `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesWrite, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createPageRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Status == "" {
		req.Status = content.StatusDraft
	}

	node, err := s.pages.Create(r.Context(), content.CreateInput{
		TenantID: tenantID,
		Title:    req.Title,
		Slug:     req.Slug,
		Blocks:   req.Blocks,
		Status:   req.Status,
		Author:   p.Subject,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "page.create", map[string]any{"nodeId": node.NodeID, "slug": node.Slug})
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, err := s.authorize(r, rolesRead, tenantID); err != nil {
		writeError(w, err)
		return
	}

	node, err := s.pages.Get(r.Context(), tenantID, chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

type updatePageRequest struct {
	Title           *string          `json:"title" validate:"omitempty,max=256"`
	Slug            *string          `json:"slug" validate:"omitempty,max=512"`
	Blocks          *[]content.Block `json:"blocks"`
	Status          *content.Status  `json:"status" validate:"omitempty,oneof=draft published archived"`
	ExpectedVersion int64            `json:"expectedVersion" validate:"omitempty,min=1"`
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesWrite, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updatePageRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}

	nodeID := chi.URLParam(r, "nodeID")
	node, err := s.pages.Update(r.Context(), content.UpdateInput{
		TenantID:        tenantID,
		NodeID:          nodeID,
		Title:           req.Title,
		Slug:            req.Slug,
		Blocks:          req.Blocks,
		Status:          req.Status,
		UpdatedBy:       p.Subject,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "page.update", map[string]any{"nodeId": nodeID})
	writeJSON(w, http.StatusOK, node)
}
