package stream

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/canopysites/canopy/store"
	"github.com/canopysites/canopy/store/storetest"
)

func seedEdge(fake *storetest.Fake, tenantID, categoryID, productID string) {
	fake.Seed(map[string]types.AttributeValue{
		store.AttrPK: &types.AttributeValueMemberS{Value: tenantID},
		store.AttrSK: &types.AttributeValueMemberS{Value: store.EdgeSK(categoryID, productID)},
	})
}

func removeEvent(tenantID, sk string, oldImage map[string]events.DynamoDBAttributeValue) events.DynamoDBEvent {
	return events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventID:   "evt-1",
				EventName: "REMOVE",
				Change: events.DynamoDBStreamRecord{
					Keys: map[string]events.DynamoDBAttributeValue{
						store.AttrPK: events.NewStringAttribute(tenantID),
						store.AttrSK: events.NewStringAttribute(sk),
					},
					OldImage: oldImage,
				},
			},
		},
	}
}

// --- Edge Cleanup Tests ---

func TestHandleEdgeCleanup_RemovesOrphanEdges(t *testing.T) {
	fake := storetest.New()
	h := NewHandler(store.New(fake, store.DefaultConfig()))

	seedEdge(fake, "acme", "cat-a", "p1")
	seedEdge(fake, "acme", "cat-b", "p1")
	seedEdge(fake, "acme", "cat-a", "p2")

	event := removeEvent("acme", store.ProductSK("p1"), map[string]events.DynamoDBAttributeValue{
		"category_ids": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("cat-a"),
			events.NewStringAttribute("cat-b"),
		}),
	})

	if err := h.HandleEdgeCleanup(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if fake.Item("acme", store.EdgeSK("cat-a", "p1")) != nil {
		t.Error("expected p1 edge in cat-a removed")
	}
	if fake.Item("acme", store.EdgeSK("cat-b", "p1")) != nil {
		t.Error("expected p1 edge in cat-b removed")
	}
	if fake.Item("acme", store.EdgeSK("cat-a", "p2")) == nil {
		t.Error("other product's edge must survive")
	}
}

func TestHandleEdgeCleanup_SkipsNonProductRecords(t *testing.T) {
	fake := storetest.New()
	h := NewHandler(store.New(fake, store.DefaultConfig()))

	seedEdge(fake, "acme", "cat-a", "p1")

	event := removeEvent("acme", store.NodeSK("n1"), map[string]events.DynamoDBAttributeValue{
		"category_ids": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("cat-a"),
		}),
	})

	if err := h.HandleEdgeCleanup(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if fake.Item("acme", store.EdgeSK("cat-a", "p1")) == nil {
		t.Error("node removal must not touch edges")
	}
}

func TestHandleEdgeCleanup_SkipsInsertAndModify(t *testing.T) {
	fake := storetest.New()
	h := NewHandler(store.New(fake, store.DefaultConfig()))

	seedEdge(fake, "acme", "cat-a", "p1")

	for _, name := range []string{"INSERT", "MODIFY"} {
		event := events.DynamoDBEvent{
			Records: []events.DynamoDBEventRecord{
				{
					EventName: name,
					Change: events.DynamoDBStreamRecord{
						Keys: map[string]events.DynamoDBAttributeValue{
							store.AttrPK: events.NewStringAttribute("acme"),
							store.AttrSK: events.NewStringAttribute(store.ProductSK("p1")),
						},
					},
				},
			},
		}
		if err := h.HandleEdgeCleanup(context.Background(), event); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if fake.Item("acme", store.EdgeSK("cat-a", "p1")) == nil {
		t.Error("non-REMOVE events must not touch edges")
	}
}

func TestHandleEdgeCleanup_NoCategories(t *testing.T) {
	fake := storetest.New()
	h := NewHandler(store.New(fake, store.DefaultConfig()))

	event := removeEvent("acme", store.ProductSK("p1"), map[string]events.DynamoDBAttributeValue{
		"title": events.NewStringAttribute("Widget"),
	})
	if err := h.HandleEdgeCleanup(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}
}

func TestHandleEdgeCleanup_Idempotent(t *testing.T) {
	fake := storetest.New()
	h := NewHandler(store.New(fake, store.DefaultConfig()))

	event := removeEvent("acme", store.ProductSK("p1"), map[string]events.DynamoDBAttributeValue{
		"category_ids": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("cat-a"),
		}),
	})

	// No edges seeded: the synchronous delete path already cleaned up.
	for i := 0; i < 2; i++ {
		if err := h.HandleEdgeCleanup(context.Background(), event); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}

// --- Attribute Helper Tests ---

func TestGetStringAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"sk": events.NewStringAttribute("PRODUCT#p1"),
	}
	if got := getStringAttr(image, "sk"); got != "PRODUCT#p1" {
		t.Errorf("expected PRODUCT#p1, got %q", got)
	}
	if got := getStringAttr(image, "missing"); got != "" {
		t.Errorf("expected empty for missing key, got %q", got)
	}
	if got := getStringAttr(nil, "sk"); got != "" {
		t.Errorf("expected empty for nil image, got %q", got)
	}
}

func TestGetStringListAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"category_ids": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("cat-a"),
			events.NewNumberAttribute("7"),
			events.NewStringAttribute("cat-b"),
		}),
		"title": events.NewStringAttribute("Widget"),
	}

	got := getStringListAttr(image, "category_ids")
	if len(got) != 2 || got[0] != "cat-a" || got[1] != "cat-b" {
		t.Errorf("expected string members only, got %v", got)
	}
	if getStringListAttr(image, "title") != nil {
		t.Error("non-list attribute must yield nil")
	}
	if getStringListAttr(image, "missing") != nil {
		t.Error("missing key must yield nil")
	}
}
