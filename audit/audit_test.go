package audit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/canopysites/canopy/audit"
)

func TestEvent_JSONShape(t *testing.T) {
	ev := audit.Event{
		TenantID:  "acme",
		Actor:     "u1",
		Action:    "page.update",
		Detail:    map[string]any{"nodeId": "n1"},
		Timestamp: "2026-08-29T12:00:00Z",
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"tenantId", "actor", "action", "detail", "timestamp"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("missing field %q in %s", field, payload)
		}
	}
}

func TestEvent_DetailOmittedWhenEmpty(t *testing.T) {
	payload, err := json.Marshal(audit.Event{TenantID: "acme", Actor: "u1", Action: "tenant.update"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["detail"]; ok {
		t.Error("empty detail must be omitted")
	}
}

func TestNopPublisher(t *testing.T) {
	// Must be safe with a nil-ish event and never panic.
	audit.NopPublisher{}.Publish(context.Background(), audit.Event{})
}
