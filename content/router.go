// Package content implements the tenant-scoped content router: it creates
// pages with routes, resolves slugs, and performs slug changes that retire
// the old route into a redirect while claiming the new one atomically.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/canopysites/canopy/internal/slug"
	"github.com/canopysites/canopy/store"
)

// Router creates content nodes with routes and keeps slug uniqueness and
// redirect history consistent through store transactions.
type Router struct {
	store  *store.Store
	blocks *BlockRegistry
}

// NewRouter creates a Router. A nil registry uses the default block kinds.
func NewRouter(s *store.Store, blocks *BlockRegistry) *Router {
	if blocks == nil {
		blocks = DefaultBlockRegistry()
	}
	return &Router{store: s, blocks: blocks}
}

// CreateInput is the input to Create. Slug is optional; when empty the slug
// is derived from the title.
type CreateInput struct {
	TenantID string
	Title    string
	Blocks   []Block
	Status   Status
	Slug     string
	Author   string
}

// Create writes a new content node and its live route in one atomic
// transaction. The route write carries the condition "slug must not already
// exist"; a collision reports ErrSlugTaken and creates no records.
func (r *Router) Create(ctx context.Context, in CreateInput) (*Node, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", store.ErrInvalidInput)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", store.ErrInvalidInput)
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrInvalidInput, in.Status)
	}
	if err := r.blocks.Validate(in.Blocks); err != nil {
		return nil, err
	}

	pageSlug := slug.Make(in.Title)
	if in.Slug != "" {
		pageSlug = slug.Normalize(in.Slug)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	node := &Node{
		TenantID:  in.TenantID,
		NodeID:    uuid.NewString(),
		ContentID: uuid.NewString(),
		Slug:      pageSlug,
		Title:     in.Title,
		Blocks:    in.Blocks,
		Status:    in.Status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    in.Author,
		UpdatedBy: in.Author,
	}
	route := &Route{
		TenantID:     in.TenantID,
		Slug:         pageSlug,
		TargetNodeID: node.NodeID,
		UpdatedAt:    now,
	}

	nodeItem, err := marshalNode(node)
	if err != nil {
		return nil, err
	}
	routeItem, err := marshalRoute(route)
	if err != nil {
		return nil, err
	}

	err = r.store.Tx().
		Put(nodeItem, true, nil).
		Put(routeItem, true, ErrSlugTaken).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Get returns the node's latest record by nodeId. No route resolution is
// involved.
func (r *Router) Get(ctx context.Context, tenantID, nodeID string) (*Node, error) {
	if tenantID == "" || nodeID == "" {
		return nil, fmt.Errorf("%w: tenant id and node id required", store.ErrInvalidInput)
	}
	item, err := r.store.Get(ctx, tenantID, store.NodeSK(nodeID))
	if err != nil {
		return nil, err
	}
	return unmarshalNode(item)
}

// UpdateInput is the patch applied by Update. Nil fields are left unchanged.
// ExpectedVersion > 0 enables optimistic concurrency: the write fails with
// ErrStaleVersion if the stored version has advanced since the read.
type UpdateInput struct {
	TenantID        string
	NodeID          string
	Title           *string
	Blocks          *[]Block
	Status          *Status
	Slug            *string
	UpdatedBy       string
	ExpectedVersion int64
}

// Update patches a node. When the patch changes the slug, three writes run
// in one atomic transaction: the old route becomes a redirect to the new
// slug, the new slug is claimed with a non-existence condition, and the node
// record is updated. If the new slug is occupied the whole transaction rolls
// back, so the page never ends up unreachable under either slug.
func (r *Router) Update(ctx context.Context, in UpdateInput) (*Node, error) {
	if in.TenantID == "" || in.NodeID == "" {
		return nil, fmt.Errorf("%w: tenant id and node id required", store.ErrInvalidInput)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", store.ErrInvalidInput, *in.Status)
	}
	if in.Blocks != nil {
		if err := r.blocks.Validate(*in.Blocks); err != nil {
			return nil, err
		}
	}

	current, err := r.Get(ctx, in.TenantID, in.NodeID)
	if err != nil {
		return nil, err
	}

	targetSlug := current.Slug
	if in.Slug != nil {
		targetSlug = slug.Normalize(*in.Slug)
	}

	next := *current
	if in.Title != nil {
		next.Title = *in.Title
	}
	if in.Blocks != nil {
		next.Blocks = *in.Blocks
	}
	if in.Status != nil {
		next.Status = *in.Status
	}
	next.Slug = targetSlug
	next.UpdatedBy = in.UpdatedBy
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	set, err := updateSet(&next, in)
	if err != nil {
		return nil, err
	}

	if targetSlug == current.Slug {
		err = r.store.Update(ctx, in.TenantID, store.NodeSK(in.NodeID), set, in.ExpectedVersion)
		if err != nil {
			return nil, r.mapUpdateConflict(err, in.ExpectedVersion)
		}
		return &next, nil
	}

	now := next.UpdatedAt
	redirect := &Route{
		TenantID:   in.TenantID,
		Slug:       current.Slug,
		IsRedirect: true,
		RedirectTo: targetSlug,
		UpdatedAt:  now,
	}
	newRoute := &Route{
		TenantID:     in.TenantID,
		Slug:         targetSlug,
		TargetNodeID: in.NodeID,
		UpdatedAt:    now,
	}

	redirectItem, err := marshalRoute(redirect)
	if err != nil {
		return nil, err
	}
	newRouteItem, err := marshalRoute(newRoute)
	if err != nil {
		return nil, err
	}

	nodeConflict := error(store.ErrNotFound)
	if in.ExpectedVersion > 0 {
		nodeConflict = ErrStaleVersion
	}

	// The redirect put overwrites the old live route unconditionally, which
	// makes a retried slug change idempotent: a route that is already a
	// redirect is simply rewritten.
	err = r.store.Tx().
		Put(redirectItem, false, nil).
		Put(newRouteItem, true, ErrSlugTaken).
		Update(in.TenantID, store.NodeSK(in.NodeID), set, in.ExpectedVersion, nodeConflict).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Resolve looks up the route record for a slug. Resolution is single-hop:
// a redirect's target may itself have been retired into a redirect later,
// and callers are expected to issue a fresh resolution for the new slug
// rather than have the router chase chains.
func (r *Router) Resolve(ctx context.Context, tenantID, rawSlug string) (*Route, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", store.ErrInvalidInput)
	}
	item, err := r.store.Get(ctx, tenantID, store.RouteSK(slug.Normalize(rawSlug)))
	if err != nil {
		return nil, err
	}
	return unmarshalRoute(item)
}

// mapUpdateConflict distinguishes a stale version from a concurrently
// removed node on the single-item update path.
func (r *Router) mapUpdateConflict(err error, expectedVersion int64) error {
	if !errors.Is(err, store.ErrConflict) {
		return err
	}
	if expectedVersion > 0 {
		return ErrStaleVersion
	}
	return store.ErrNotFound
}

// updateSet builds the attribute set for the node update from the patched
// fields. Version and timestamps are managed by the store layer.
func updateSet(next *Node, in UpdateInput) (store.Item, error) {
	set := store.Item{}

	titleAV, err := attributevalue.Marshal(next.Title)
	if err != nil {
		return nil, fmt.Errorf("marshal title: %w", err)
	}
	set["title"] = titleAV

	statusAV, err := attributevalue.Marshal(next.Status)
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	set["status"] = statusAV

	slugAV, err := attributevalue.Marshal(next.Slug)
	if err != nil {
		return nil, fmt.Errorf("marshal slug: %w", err)
	}
	set["slug"] = slugAV

	blocksAV, err := attributevalue.Marshal(next.Blocks)
	if err != nil {
		return nil, fmt.Errorf("marshal blocks: %w", err)
	}
	set["blocks"] = blocksAV

	updatedByAV, err := attributevalue.Marshal(in.UpdatedBy)
	if err != nil {
		return nil, fmt.Errorf("marshal updated_by: %w", err)
	}
	set["updated_by"] = updatedByAV

	return set, nil
}

// MarshalNodeItem returns the raw store item for a node, keyed for the
// tenant's partition. Used by the tenant provisioner to bundle scaffold
// pages into its transaction.
func MarshalNodeItem(n *Node) (store.Item, error) { return marshalNode(n) }

// MarshalRouteItem returns the raw store item for a route record.
func MarshalRouteItem(rt *Route) (store.Item, error) { return marshalRoute(rt) }

func marshalNode(n *Node) (store.Item, error) {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return nil, fmt.Errorf("marshal node: %w", err)
	}
	item[store.AttrPK] = &types.AttributeValueMemberS{Value: n.TenantID}
	item[store.AttrSK] = &types.AttributeValueMemberS{Value: store.NodeSK(n.NodeID)}
	return item, nil
}

func marshalRoute(rt *Route) (store.Item, error) {
	item, err := attributevalue.MarshalMap(rt)
	if err != nil {
		return nil, fmt.Errorf("marshal route: %w", err)
	}
	item[store.AttrPK] = &types.AttributeValueMemberS{Value: rt.TenantID}
	item[store.AttrSK] = &types.AttributeValueMemberS{Value: store.RouteSK(rt.Slug)}
	return item, nil
}

func unmarshalNode(item store.Item) (*Node, error) {
	var n Node
	if err := attributevalue.UnmarshalMap(item, &n); err != nil {
		return nil, fmt.Errorf("unmarshal node: %w", err)
	}
	return &n, nil
}

func unmarshalRoute(item store.Item) (*Route, error) {
	var rt Route
	if err := attributevalue.UnmarshalMap(item, &rt); err != nil {
		return nil, fmt.Errorf("unmarshal route: %w", err)
	}
	return &rt, nil
}
