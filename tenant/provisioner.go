// Package tenant implements tenant provisioning and configuration updates.
// Provisioning bootstraps a tenant atomically: the config record plus a
// default page set in one store transaction, so no partial tenant can ever
// exist.
package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/internal/slug"
	"github.com/canopysites/canopy/store"
)

// ErrTenantExists is returned when the tenant id is already in use.
var ErrTenantExists = fmt.Errorf("tenant: id already in use: %w", store.ErrConflict)

// Theme holds a tenant's color and typography configuration.
type Theme struct {
	PrimaryColor   string `dynamodbav:"primary_color" json:"primaryColor"`
	SecondaryColor string `dynamodbav:"secondary_color" json:"secondaryColor"`
	AccentColor    string `dynamodbav:"accent_color" json:"accentColor"`
	FontFamily     string `dynamodbav:"font_family" json:"fontFamily"`
	HeadingFont    string `dynamodbav:"heading_font" json:"headingFont"`
}

// Integrations holds per-tenant third-party provider settings, referenced
// by opaque identifiers only.
type Integrations struct {
	AnalyticsID      string `dynamodbav:"analytics_id,omitempty" json:"analyticsId,omitempty"`
	PaymentProvider  string `dynamodbav:"payment_provider,omitempty" json:"paymentProvider,omitempty"`
	IdentityProvider string `dynamodbav:"identity_provider,omitempty" json:"identityProvider,omitempty"`
}

// Tenant is an isolated site/store instance. All core records are
// partitioned by its id; the config record itself lives in the system-wide
// TENANT partition.
type Tenant struct {
	ID           string       `dynamodbav:"id" json:"id"`
	Domain       string       `dynamodbav:"domain,omitempty" json:"domain,omitempty"`
	Name         string       `dynamodbav:"name" json:"name"`
	Status       string       `dynamodbav:"status" json:"status"`
	Plan         string       `dynamodbav:"plan" json:"plan"`
	Theme        Theme        `dynamodbav:"theme" json:"theme"`
	Integrations Integrations `dynamodbav:"integrations" json:"integrations"`
	Version      int64        `dynamodbav:"version" json:"version"`
	CreatedAt    string       `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt    string       `dynamodbav:"updated_at" json:"updatedAt"`
	CreatedBy    string       `dynamodbav:"created_by" json:"createdBy"`
	UpdatedBy    string       `dynamodbav:"updated_by" json:"updatedBy"`
}

// DefaultTheme returns the theme new tenants start with.
func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:   "#1a1a2e",
		SecondaryColor: "#f5f5f0",
		AccentColor:    "#e94560",
		FontFamily:     "Inter",
		HeadingFont:    "Inter",
	}
}

// Provisioner bootstraps tenants.
type Provisioner struct {
	store *store.Store
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(s *store.Store) *Provisioner {
	return &Provisioner{store: s}
}

// ProvisionInput is the input to Provision. ID is derived from Name when
// empty (same slugify rule as page slugs, without the leading "/").
type ProvisionInput struct {
	ID      string
	Name    string
	Domain  string
	Theme   *Theme
	ActorID string
}

// Provision creates a tenant with its config record, a published Home page
// at "/" and a published Contact page at "/contact" — five items in one
// atomic transaction. The config write carries the condition "tenant id
// must not already exist"; on collision, ErrTenantExists is reported and
// none of the five items are written.
func (p *Provisioner) Provision(ctx context.Context, in ProvisionInput) (*Tenant, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name required", store.ErrInvalidInput)
	}
	id := in.ID
	if id == "" {
		id = slug.ID(in.Name)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: cannot derive tenant id from name %q", store.ErrInvalidInput, in.Name)
	}

	theme := DefaultTheme()
	if in.Theme != nil {
		theme = *in.Theme
	}

	now := time.Now().UTC().Format(time.RFC3339)
	t := &Tenant{
		ID:        id,
		Domain:    in.Domain,
		Name:      in.Name,
		Status:    "active",
		Plan:      "free",
		Theme:     theme,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: in.ActorID,
		UpdatedBy: in.ActorID,
	}

	tenantItem, err := marshalTenant(t)
	if err != nil {
		return nil, err
	}

	tx := p.store.Tx().Put(tenantItem, true, ErrTenantExists)
	for _, page := range defaultPages(id, in.Name, in.ActorID, now) {
		nodeItem, err := content.MarshalNodeItem(page.node)
		if err != nil {
			return nil, err
		}
		routeItem, err := content.MarshalRouteItem(page.route)
		if err != nil {
			return nil, err
		}
		tx.Put(nodeItem, false, nil).Put(routeItem, false, nil)
	}

	if err := tx.Run(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a tenant's configuration.
func (p *Provisioner) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id required", store.ErrInvalidInput)
	}
	item, err := p.store.Get(ctx, store.TenantPartition, tenantID)
	if err != nil {
		return nil, err
	}
	return unmarshalTenant(item)
}

// UpdateInput is the merge patch applied by Update. Nil fields are left
// unchanged.
type UpdateInput struct {
	TenantID     string
	Name         *string
	Domain       *string
	Status       *string
	Plan         *string
	Theme        *Theme
	Integrations *Integrations
	ActorID      string
}

// Update applies a merge patch to the tenant config: a full read-modify-
// write with field-by-field overwrite, not a transaction. Concurrent
// patches are last-write-wins.
func (p *Provisioner) Update(ctx context.Context, in UpdateInput) (*Tenant, error) {
	current, err := p.Get(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	next := *current
	if in.Name != nil {
		next.Name = *in.Name
	}
	if in.Domain != nil {
		next.Domain = *in.Domain
	}
	if in.Status != nil {
		next.Status = *in.Status
	}
	if in.Plan != nil {
		next.Plan = *in.Plan
	}
	if in.Theme != nil {
		next.Theme = *in.Theme
	}
	if in.Integrations != nil {
		next.Integrations = *in.Integrations
	}
	next.UpdatedBy = in.ActorID
	next.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	next.Version = current.Version + 1

	item, err := marshalTenant(&next)
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, item, false); err != nil {
		return nil, err
	}
	return &next, nil
}

// scaffoldPage pairs a default page with its route for provisioning.
type scaffoldPage struct {
	node  *content.Node
	route *content.Route
}

// defaultPages builds the published Home and Contact scaffold pages.
func defaultPages(tenantID, siteName, actorID, now string) []scaffoldPage {
	home := &content.Node{
		TenantID:  tenantID,
		NodeID:    uuid.NewString(),
		ContentID: uuid.NewString(),
		Slug:      "/",
		Title:     siteName,
		Blocks: []content.Block{
			{Type: "hero", Attrs: map[string]any{"heading": siteName}},
		},
		Status:    content.StatusPublished,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    actorID,
		UpdatedBy: actorID,
	}
	contact := &content.Node{
		TenantID:  tenantID,
		NodeID:    uuid.NewString(),
		ContentID: uuid.NewString(),
		Slug:      "/contact",
		Title:     "Contact",
		Blocks: []content.Block{
			{Type: "heading", Attrs: map[string]any{"text": "Contact"}},
			{Type: "contactForm", Attrs: map[string]any{}},
		},
		Status:    content.StatusPublished,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    actorID,
		UpdatedBy: actorID,
	}

	return []scaffoldPage{
		{node: home, route: &content.Route{TenantID: tenantID, Slug: "/", TargetNodeID: home.NodeID, UpdatedAt: now}},
		{node: contact, route: &content.Route{TenantID: tenantID, Slug: "/contact", TargetNodeID: contact.NodeID, UpdatedAt: now}},
	}
}

func marshalTenant(t *Tenant) (store.Item, error) {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return nil, fmt.Errorf("marshal tenant: %w", err)
	}
	item[store.AttrPK] = &types.AttributeValueMemberS{Value: store.TenantPartition}
	item[store.AttrSK] = &types.AttributeValueMemberS{Value: t.ID}
	return item, nil
}

func unmarshalTenant(item store.Item) (*Tenant, error) {
	var t Tenant
	if err := attributevalue.UnmarshalMap(item, &t); err != nil {
		return nil, fmt.Errorf("unmarshal tenant: %w", err)
	}
	return &t, nil
}
