// Package stream provides the DynamoDB Streams handler that reconciles
// category edges after a product record is removed. The synchronous delete
// path already clears edges; this handler is the backstop for edges it
// missed (a crash between the product delete and the edge writes).
package stream

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/canopysites/canopy/store"
)

// Handler processes DynamoDB stream events for edge reconciliation.
type Handler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewHandler creates a stream handler.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s, logger: log.Logger}
}

// HandleEdgeCleanup deletes the category edges left behind by a removed
// product. Designed to be used as an AWS Lambda handler. Edge deletes are
// idempotent, so a retried batch converges.
func (h *Handler) HandleEdgeCleanup(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error().
				Str("event_id", record.EventID).
				Err(err).
				Msg("stream: process record failed")
			return err // retried by Lambda, eventually DLQ
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	sk := getStringAttr(record.Change.Keys, store.AttrSK)
	if !store.IsProductSK(sk) {
		return nil
	}
	tenantID := getStringAttr(record.Change.Keys, store.AttrPK)
	productID := store.ProductIDFromSK(sk)
	categoryIDs := getStringListAttr(record.Change.OldImage, "category_ids")
	if len(categoryIDs) == 0 {
		return nil
	}

	h.logger.Info().
		Str("tenant_id", tenantID).
		Str("product_id", productID).
		Int("categories", len(categoryIDs)).
		Msg("stream: reconciling edges for removed product")

	for _, categoryID := range categoryIDs {
		if err := h.store.Delete(ctx, tenantID, store.EdgeSK(categoryID, productID)); err != nil {
			return fmt.Errorf("delete edge %s: %w", store.EdgeSK(categoryID, productID), err)
		}
	}
	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getStringListAttr extracts a string list attribute from a DynamoDB
// stream image.
func getStringListAttr(image map[string]events.DynamoDBAttributeValue, key string) []string {
	v, ok := image[key]
	if !ok || v.DataType() != events.DataTypeList {
		return nil
	}
	var result []string
	for _, item := range v.List() {
		if item.DataType() == events.DataTypeString {
			result = append(result, item.String())
		}
	}
	return result
}
