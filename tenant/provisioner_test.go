package tenant_test

import (
	"context"
	"errors"
	"testing"

	"github.com/canopysites/canopy/content"
	"github.com/canopysites/canopy/store"
	"github.com/canopysites/canopy/store/storetest"
	"github.com/canopysites/canopy/tenant"
)

func newProvisioner(t *testing.T) (*tenant.Provisioner, *storetest.Fake, *store.Store) {
	t.Helper()
	fake := storetest.New()
	st := store.New(fake, store.DefaultConfig())
	return tenant.NewProvisioner(st), fake, st
}

// --- Provision Tests ---

func TestProvision_CreatesTenantWithScaffoldPages(t *testing.T) {
	p, fake, st := newProvisioner(t)
	ctx := context.Background()

	created, err := p.Provision(ctx, tenant.ProvisionInput{Name: "Acme Goods", ActorID: "root"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if created.ID != "acme-goods" {
		t.Errorf("expected derived id acme-goods, got %s", created.ID)
	}
	if created.Status != "active" || created.Plan != "free" {
		t.Errorf("unexpected defaults: %+v", created)
	}
	if created.Theme != tenant.DefaultTheme() {
		t.Errorf("expected default theme, got %+v", created.Theme)
	}

	// Config record plus two page/route pairs.
	if fake.Count() != 5 {
		t.Fatalf("expected 5 records, got %d", fake.Count())
	}

	// Both scaffold slugs resolve to published pages.
	router := content.NewRouter(st, nil)
	for _, slug := range []string{"/", "/contact"} {
		route, err := router.Resolve(ctx, "acme-goods", slug)
		if err != nil {
			t.Fatalf("resolve %s: %v", slug, err)
		}
		node, err := router.Get(ctx, "acme-goods", route.TargetNodeID)
		if err != nil {
			t.Fatalf("get %s: %v", slug, err)
		}
		if node.Status != content.StatusPublished {
			t.Errorf("scaffold page %s must be published, got %s", slug, node.Status)
		}
	}
}

func TestProvision_ExplicitID(t *testing.T) {
	p, _, _ := newProvisioner(t)

	created, err := p.Provision(context.Background(), tenant.ProvisionInput{ID: "custom", Name: "Whatever"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if created.ID != "custom" {
		t.Errorf("expected custom, got %s", created.ID)
	}
}

func TestProvision_IDCollision(t *testing.T) {
	p, fake, _ := newProvisioner(t)
	ctx := context.Background()

	if _, err := p.Provision(ctx, tenant.ProvisionInput{Name: "Acme"}); err != nil {
		t.Fatalf("first provision: %v", err)
	}
	before := fake.Count()

	_, err := p.Provision(ctx, tenant.ProvisionInput{Name: "Acme"})
	if !errors.Is(err, tenant.ErrTenantExists) {
		t.Fatalf("expected ErrTenantExists, got %v", err)
	}
	if !errors.Is(err, store.ErrConflict) {
		t.Error("ErrTenantExists must also match ErrConflict")
	}
	if fake.Count() != before {
		t.Error("failed provision must write nothing")
	}
}

func TestProvision_Validation(t *testing.T) {
	p, _, _ := newProvisioner(t)

	if _, err := p.Provision(context.Background(), tenant.ProvisionInput{}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := p.Provision(context.Background(), tenant.ProvisionInput{Name: "!!!"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for underivable id, got %v", err)
	}
}

func TestProvision_CustomTheme(t *testing.T) {
	p, _, _ := newProvisioner(t)

	theme := tenant.Theme{PrimaryColor: "#000", SecondaryColor: "#fff", AccentColor: "#f00", FontFamily: "Lora", HeadingFont: "Lora"}
	created, err := p.Provision(context.Background(), tenant.ProvisionInput{Name: "Acme", Theme: &theme})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if created.Theme != theme {
		t.Errorf("expected custom theme, got %+v", created.Theme)
	}
}

// --- Get / Update Tests ---

func TestGetTenant_Missing(t *testing.T) {
	p, _, _ := newProvisioner(t)

	_, err := p.Get(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTenant_MergePatch(t *testing.T) {
	p, _, _ := newProvisioner(t)
	ctx := context.Background()

	created, err := p.Provision(ctx, tenant.ProvisionInput{Name: "Acme", Domain: "acme.example.com"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	plan := "business"
	theme := tenant.DefaultTheme()
	theme.PrimaryColor = "#123456"
	updated, err := p.Update(ctx, tenant.UpdateInput{
		TenantID: created.ID,
		Plan:     &plan,
		Theme:    &theme,
		ActorID:  "admin-1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Plan != "business" || updated.Theme.PrimaryColor != "#123456" {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Name != "Acme" || updated.Domain != "acme.example.com" {
		t.Errorf("untouched fields must survive: %+v", updated)
	}
	if updated.Version != created.Version+1 {
		t.Errorf("expected version bump, got %d", updated.Version)
	}

	// Persisted, not just returned.
	got, err := p.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Plan != "business" || got.UpdatedBy != "admin-1" {
		t.Errorf("stored state: %+v", got)
	}
}

func TestUpdateTenant_Missing(t *testing.T) {
	p, _, _ := newProvisioner(t)

	name := "X"
	_, err := p.Update(context.Background(), tenant.UpdateInput{TenantID: "nope", Name: &name})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
