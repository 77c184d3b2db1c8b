package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canopysites/canopy/access"
)

// --- Verifier Tests ---

func TestVerify_RoundTrip(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("test-secret"))

	token, err := access.IssueToken("test-secret", &access.Principal{
		Subject:  "u1",
		Email:    "u1@acme.example.com",
		Role:     access.RoleEditor,
		TenantID: "acme",
	}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Subject != "u1" || p.Role != access.RoleEditor || p.TenantID != "acme" {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("right"))

	token, err := access.IssueToken("wrong", &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("s"))

	token, err := access.IssueToken("s", &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"}, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("s"))

	if _, err := v.Verify(context.Background(), "not.a.token"); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerify_UnknownRole(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("s"))

	token, err := access.IssueToken("s", &access.Principal{Subject: "u1", Role: access.Role("owner"), TenantID: "acme"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for unknown role, got %v", err)
	}
}

func TestVerify_TenantRoleWithoutTenant(t *testing.T) {
	v := access.NewVerifier(access.StaticSecret("s"))

	token, err := access.IssueToken("s", &access.Principal{Subject: "u1", Role: access.RoleAdmin}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// --- Secret Cache Tests ---

func TestVerifier_CachesSecret(t *testing.T) {
	calls := 0
	v := access.NewVerifier(access.SecretFunc(func(context.Context) (string, error) {
		calls++
		return "s", nil
	}))

	token, err := access.IssueToken("s", &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := v.Verify(context.Background(), token); err != nil {
			t.Fatalf("verify %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 source call, got %d", calls)
	}

	v.Invalidate()
	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify after invalidate: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after invalidate, got %d calls", calls)
	}
}

func TestVerifier_SourceFailure(t *testing.T) {
	sourceErr := errors.New("secrets manager down")
	v := access.NewVerifier(access.SecretFunc(func(context.Context) (string, error) {
		return "", sourceErr
	}))

	if _, err := v.Verify(context.Background(), "whatever"); !errors.Is(err, sourceErr) {
		t.Fatalf("expected source error surfaced, got %v", err)
	}
}

func TestVerifier_RotationFlow(t *testing.T) {
	secret := "v1"
	v := access.NewVerifier(access.SecretFunc(func(context.Context) (string, error) {
		return secret, nil
	}))

	oldToken, _ := access.IssueToken("v1", &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"}, time.Minute)
	if _, err := v.Verify(context.Background(), oldToken); err != nil {
		t.Fatalf("verify before rotation: %v", err)
	}

	// Rotate: old tokens keep verifying against the cached secret until the
	// cache is invalidated.
	secret = "v2"
	newToken, _ := access.IssueToken("v2", &access.Principal{Subject: "u1", Role: access.RoleAdmin, TenantID: "acme"}, time.Minute)
	if _, err := v.Verify(context.Background(), newToken); !errors.Is(err, access.ErrUnauthenticated) {
		t.Fatal("new-secret token must fail against the cached secret")
	}

	v.Invalidate()
	if _, err := v.Verify(context.Background(), newToken); err != nil {
		t.Fatalf("verify after invalidate: %v", err)
	}
}
