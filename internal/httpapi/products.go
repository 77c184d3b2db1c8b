package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canopysites/canopy/catalog"
)

type createProductRequest struct {
	Title          string              `json:"title" validate:"required,max=256"`
	Slug           string              `json:"slug" validate:"omitempty,max=512"`
	Price          int64               `json:"price" validate:"min=0"`
	SalePrice      *int64              `json:"salePrice" validate:"omitempty,min=0"`
	Currency       string              `json:"currency" validate:"omitempty,len=3"`
	Availability   string              `json:"availability" validate:"omitempty,oneof=in_stock out_of_stock preorder"`
	Inventory      int                 `json:"inventory" validate:"min=0"`
	CategoryIDs    []string            `json:"categoryIds" validate:"dive,required"`
	Image          string              `json:"image" validate:"omitempty,url"`
	Tags           []string            `json:"tags"`
	SortOrder      int                 `json:"sortOrder"`
	VolumePricing  []catalog.PriceTier `json:"volumePricing"`
	AvailableFrom  string              `json:"availableFrom" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableUntil string              `json:"availableUntil" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesWrite, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createProductRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}

	product, err := s.products.Create(r.Context(), catalog.CreateInput{
		TenantID:       tenantID,
		Title:          req.Title,
		Slug:           req.Slug,
		Price:          req.Price,
		SalePrice:      req.SalePrice,
		Currency:       req.Currency,
		Availability:   req.Availability,
		Inventory:      req.Inventory,
		CategoryIDs:    req.CategoryIDs,
		Image:          req.Image,
		Tags:           req.Tags,
		SortOrder:      req.SortOrder,
		VolumePricing:  req.VolumePricing,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "product.create", map[string]any{"productId": product.ProductID})
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, err := s.authorize(r, rolesRead, tenantID); err != nil {
		writeError(w, err)
		return
	}

	product, err := s.products.Get(r.Context(), tenantID, chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type updateProductRequest struct {
	Title          *string              `json:"title" validate:"omitempty,max=256"`
	Slug           *string              `json:"slug" validate:"omitempty,max=512"`
	Price          *int64               `json:"price" validate:"omitempty,min=0"`
	SalePrice      *int64               `json:"salePrice" validate:"omitempty,min=0"`
	Currency       *string              `json:"currency" validate:"omitempty,len=3"`
	Availability   *string              `json:"availability" validate:"omitempty,oneof=in_stock out_of_stock preorder"`
	Inventory      *int                 `json:"inventory" validate:"omitempty,min=0"`
	CategoryIDs    *[]string            `json:"categoryIds" validate:"omitempty,dive,required"`
	Image          *string              `json:"image" validate:"omitempty,url"`
	Tags           *[]string            `json:"tags"`
	SortOrder      *int                 `json:"sortOrder"`
	VolumePricing  *[]catalog.PriceTier `json:"volumePricing"`
	AvailableFrom  *string              `json:"availableFrom" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AvailableUntil *string              `json:"availableUntil" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Status         *string              `json:"status" validate:"omitempty,oneof=active archived"`
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesWrite, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProductRequest
	if err := bind(r, &req); err != nil {
		writeError(w, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	product, err := s.products.Update(r.Context(), catalog.UpdateInput{
		TenantID:       tenantID,
		ProductID:      productID,
		Title:          req.Title,
		Slug:           req.Slug,
		Price:          req.Price,
		SalePrice:      req.SalePrice,
		Currency:       req.Currency,
		Availability:   req.Availability,
		Inventory:      req.Inventory,
		CategoryIDs:    req.CategoryIDs,
		Image:          req.Image,
		Tags:           req.Tags,
		SortOrder:      req.SortOrder,
		VolumePricing:  req.VolumePricing,
		AvailableFrom:  req.AvailableFrom,
		AvailableUntil: req.AvailableUntil,
		Status:         req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "product.update", map[string]any{"productId": productID})
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	p, err := s.authorize(r, rolesWrite, tenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	productID := chi.URLParam(r, "productID")
	if err := s.products.Delete(r.Context(), tenantID, productID); err != nil {
		writeError(w, err)
		return
	}

	s.publishAudit(r.Context(), p, tenantID, "product.delete", map[string]any{"productId": productID})
	writeJSON(w, http.StatusNoContent, nil)
}

type categoryListing struct {
	CategoryID string         `json:"categoryId"`
	Products   []catalog.Edge `json:"products"`
}

// handleListCategory serves a category's product listing straight from the
// denormalized edge records; no per-product reads.
func (s *Server) handleListCategory(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if _, err := s.authorize(r, rolesRead, tenantID); err != nil {
		writeError(w, err)
		return
	}

	categoryID := chi.URLParam(r, "categoryID")
	edges, err := s.products.Edges().ListByCategory(r.Context(), tenantID, categoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryListing{CategoryID: categoryID, Products: edges})
}
