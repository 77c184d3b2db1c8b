package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/canopysites/canopy/internal/slug"
	"github.com/canopysites/canopy/store"
)

// Service implements the product write paths. Every mutation ends with an
// edge rebuild; a rebuild failure is logged and does not fail the parent
// operation (the edge set converges on the next rebuild or via the stream
// reconciler).
type Service struct {
	store *store.Store
	edges *EdgeManager
}

// NewService creates a product Service sharing the given edge manager.
func NewService(s *store.Store, edges *EdgeManager) *Service {
	return &Service{store: s, edges: edges}
}

// Edges returns the edge manager, for read paths that list by category.
func (s *Service) Edges() *EdgeManager { return s.edges }

// CreateInput is the input to Create. Slug is derived from the title when
// empty. Currency defaults to "USD".
type CreateInput struct {
	TenantID       string
	Title          string
	Slug           string
	Price          int64
	SalePrice      *int64
	Currency       string
	Availability   string
	Inventory      int
	CategoryIDs    []string
	Image          string
	Tags           []string
	SortOrder      int
	VolumePricing  []PriceTier
	AvailableFrom  string
	AvailableUntil string
}

// Create stores a new product and populates its category edges.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", store.ErrInvalidInput)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", store.ErrInvalidInput)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", store.ErrInvalidInput)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p := &Product{
		TenantID:       in.TenantID,
		ProductID:      uuid.NewString(),
		Title:          in.Title,
		Slug:           in.Slug,
		Price:          in.Price,
		SalePrice:      in.SalePrice,
		Currency:       in.Currency,
		Availability:   in.Availability,
		Inventory:      in.Inventory,
		CategoryIDs:    in.CategoryIDs,
		Image:          in.Image,
		Tags:           in.Tags,
		SortOrder:      in.SortOrder,
		VolumePricing:  in.VolumePricing,
		AvailableFrom:  in.AvailableFrom,
		AvailableUntil: in.AvailableUntil,
		Status:         "active",
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Slug == "" {
		p.Slug = slug.ID(in.Title)
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.Availability == "" {
		p.Availability = AvailabilityInStock
	}

	item, err := marshalProduct(p)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, item, true); err != nil {
		return nil, err
	}

	// Pure population: no old categories on create.
	s.rebuild(ctx, p.TenantID, p.ProductID, nil, SnapshotOf(p))
	return p, nil
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, tenantID, productID string) (*Product, error) {
	if tenantID == "" || productID == "" {
		return nil, fmt.Errorf("%w: tenant id and product id required", store.ErrInvalidInput)
	}
	item, err := s.store.Get(ctx, tenantID, store.ProductSK(productID))
	if err != nil {
		return nil, err
	}
	return unmarshalProduct(item)
}

// UpdateInput is the patch applied by Update. Nil fields are left unchanged.
type UpdateInput struct {
	TenantID       string
	ProductID      string
	Title          *string
	Slug           *string
	Price          *int64
	SalePrice      *int64
	Currency       *string
	Availability   *string
	Inventory      *int
	CategoryIDs    *[]string
	Image          *string
	Tags           *[]string
	SortOrder      *int
	VolumePricing  *[]PriceTier
	AvailableFrom  *string
	AvailableUntil *string
	Status         *string
}

// Update merges the patch into the stored product and rebuilds edges with
// the pre-update category list as the old set, so a category present in
// both sets has its denormalized fields refreshed.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*Product, error) {
	current, err := s.Get(ctx, in.TenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", store.ErrInvalidInput)
	}

	oldCategories := current.CategoryIDs

	next := *current
	applyPatch(&next, in)
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	item, err := marshalProduct(&next)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, item, false); err != nil {
		return nil, err
	}

	s.rebuild(ctx, next.TenantID, next.ProductID, oldCategories, SnapshotOf(&next))
	return &next, nil
}

// Delete removes a product and cleans up its edges (rebuild with an empty
// target membership). Deleting a product with no categories touches no
// edge records.
func (s *Service) Delete(ctx context.Context, tenantID, productID string) error {
	current, err := s.Get(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tenantID, store.ProductSK(productID)); err != nil {
		return err
	}
	s.rebuild(ctx, tenantID, productID, current.CategoryIDs, Snapshot{})
	return nil
}

// rebuild runs the edge reconciliation and logs instead of failing the
// parent operation; the rebuild is re-runnable and the stream reconciler
// backstops deletes.
func (s *Service) rebuild(ctx context.Context, tenantID, productID string, oldCategoryIDs []string, snap Snapshot) {
	if err := s.edges.RebuildEdges(ctx, tenantID, productID, oldCategoryIDs, snap); err != nil {
		log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("product_id", productID).
			Msg("catalog: edge rebuild failed; listing may be stale until next rebuild")
	}
}

func applyPatch(p *Product, in UpdateInput) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Slug != nil {
		p.Slug = *in.Slug
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SalePrice != nil {
		p.SalePrice = in.SalePrice
	}
	if in.Currency != nil {
		p.Currency = *in.Currency
	}
	if in.Availability != nil {
		p.Availability = *in.Availability
	}
	if in.Inventory != nil {
		p.Inventory = *in.Inventory
	}
	if in.CategoryIDs != nil {
		p.CategoryIDs = *in.CategoryIDs
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.SortOrder != nil {
		p.SortOrder = *in.SortOrder
	}
	if in.VolumePricing != nil {
		p.VolumePricing = *in.VolumePricing
	}
	if in.AvailableFrom != nil {
		p.AvailableFrom = *in.AvailableFrom
	}
	if in.AvailableUntil != nil {
		p.AvailableUntil = *in.AvailableUntil
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

func marshalProduct(p *Product) (store.Item, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}
	item[store.AttrPK] = &types.AttributeValueMemberS{Value: p.TenantID}
	item[store.AttrSK] = &types.AttributeValueMemberS{Value: store.ProductSK(p.ProductID)}
	return item, nil
}

func unmarshalProduct(item store.Item) (*Product, error) {
	var p Product
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &p, nil
}
