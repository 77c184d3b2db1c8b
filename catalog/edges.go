package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/canopysites/canopy/store"
)

// EdgeManager maintains the category-product adjacency records. It is
// invoked by product write paths, never by end users directly.
type EdgeManager struct {
	store *store.Store
}

// NewEdgeManager creates an EdgeManager.
func NewEdgeManager(s *store.Store) *EdgeManager {
	return &EdgeManager{store: s}
}

// RebuildEdges reconciles a product's edge records with its target category
// membership: one delete per category the product left, one write per
// category in the new snapshot (refreshing the denormalized fields for
// categories the product stays in). The rebuild is idempotent; re-running
// it converges to the same end state.
//
// When the touched item count fits one store transaction the whole
// reconciliation is atomic. Above the cap it degrades to per-item writes,
// which can transiently leave a listing stale until a re-run settles it.
func (m *EdgeManager) RebuildEdges(ctx context.Context, tenantID, productID string, oldCategoryIDs []string, snap Snapshot) error {
	if tenantID == "" || productID == "" {
		return fmt.Errorf("%w: tenant id and product id required", store.ErrInvalidInput)
	}

	newSet := make(map[string]struct{}, len(snap.CategoryIDs))
	for _, c := range snap.CategoryIDs {
		newSet[c] = struct{}{}
	}

	// Removals: categories the product left. Deleting a nonexistent edge is
	// a no-op, so retries and stale old-lists are harmless.
	var removals []string
	seen := make(map[string]struct{}, len(oldCategoryIDs))
	for _, c := range oldCategoryIDs {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, keep := newSet[c]; !keep {
			removals = append(removals, c)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	writes := make([]store.Item, 0, len(newSet))
	written := make(map[string]struct{}, len(newSet))
	for _, c := range snap.CategoryIDs {
		if _, dup := written[c]; dup {
			continue
		}
		written[c] = struct{}{}
		item, err := marshalEdge(edgeFromSnapshot(tenantID, c, productID, snap, now))
		if err != nil {
			return err
		}
		writes = append(writes, item)
	}

	total := len(removals) + len(writes)
	if total == 0 {
		return nil
	}

	if total <= m.store.MaxTransactItems() {
		tx := m.store.Tx()
		for _, c := range removals {
			tx.Delete(tenantID, store.EdgeSK(c, productID))
		}
		for _, item := range writes {
			tx.Put(item, false, nil)
		}
		return tx.Run(ctx)
	}

	// Too large for one transaction: best-effort per item. The first error
	// aborts; a retry converges because every step is idempotent.
	for _, c := range removals {
		if err := m.store.Delete(ctx, tenantID, store.EdgeSK(c, productID)); err != nil {
			return err
		}
	}
	for _, item := range writes {
		if err := m.store.Put(ctx, item, false); err != nil {
			return err
		}
	}
	return nil
}

// ListByCategory returns the edge records for a category, in sort key order.
func (m *EdgeManager) ListByCategory(ctx context.Context, tenantID, categoryID string) ([]Edge, error) {
	if tenantID == "" || categoryID == "" {
		return nil, fmt.Errorf("%w: tenant id and category id required", store.ErrInvalidInput)
	}
	items, err := m.store.QueryPrefix(ctx, tenantID, store.EdgePrefix(categoryID))
	if err != nil {
		return nil, err
	}
	edges := make([]Edge, 0, len(items))
	for _, item := range items {
		var e Edge
		if err := attributevalue.UnmarshalMap(item, &e); err != nil {
			return nil, fmt.Errorf("unmarshal edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func edgeFromSnapshot(tenantID, categoryID, productID string, snap Snapshot, now string) *Edge {
	return &Edge{
		TenantID:       tenantID,
		CategoryID:     categoryID,
		ProductID:      productID,
		Title:          snap.Title,
		Slug:           snap.Slug,
		Price:          snap.Price,
		SalePrice:      snap.SalePrice,
		Currency:       snap.Currency,
		Image:          snap.Image,
		Availability:   snap.Availability,
		Status:         snap.Status,
		SortOrder:      snap.SortOrder,
		Tags:           snap.Tags,
		VolumePricing:  snap.VolumePricing,
		AvailableFrom:  snap.AvailableFrom,
		AvailableUntil: snap.AvailableUntil,
		UpdatedAt:      now,
	}
}

func marshalEdge(e *Edge) (store.Item, error) {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, fmt.Errorf("marshal edge: %w", err)
	}
	item[store.AttrPK] = &types.AttributeValueMemberS{Value: e.TenantID}
	item[store.AttrSK] = &types.AttributeValueMemberS{Value: store.EdgeSK(e.CategoryID, e.ProductID)}
	return item, nil
}
