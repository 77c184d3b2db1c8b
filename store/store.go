package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client the store depends on.
// *dynamodb.Client satisfies it; tests use the in-memory fake in storetest.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Item is a raw record as stored in the table.
type Item = map[string]types.AttributeValue

// Store provides single-table DynamoDB operations: point gets, prefix
// queries, conditional writes, and atomic multi-item transactions. All
// relational guarantees the product needs (unique slugs, redirect history,
// category membership) are emulated on top of these primitives.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Table returns the configured table name.
func (s *Store) Table() string { return s.config.Table }

// MaxTransactItems returns the per-transaction item cap.
func (s *Store) MaxTransactItems() int { return s.config.MaxTransactItems }

// key builds the composite primary key for (pk, sk).
func key(pk, sk string) Item {
	return Item{
		AttrPK: &types.AttributeValueMemberS{Value: pk},
		AttrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// Get performs a point lookup, returning ErrNotFound if the record is absent.
func (s *Store) Get(ctx context.Context, pk, sk string) (Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key:       key(pk, sk),
	})
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return out.Item, nil
}

// Put writes a single record. With mustNotExist set, the write carries the
// condition "record must not already exist" and a condition failure maps to
// ErrConflict.
func (s *Store) Put(ctx context.Context, item Item, mustNotExist bool) error {
	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item:      item,
	}
	if mustNotExist {
		in.ConditionExpression = aws.String(notExistsCondition)
	}
	_, err := s.client.PutItem(ctx, in)
	return wrapStoreErr(err)
}

// Delete removes a single record. Deleting an absent record is a no-op.
func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.Table),
		Key:       key(pk, sk),
	})
	return wrapStoreErr(err)
}

// Update applies a field-level update to an existing record, bumping its
// version counter and updated_at. With expectedVersion > 0, the write
// carries an optimistic-concurrency condition and a stale version maps to
// ErrConflict. The record must exist; updates never resurrect records.
func (s *Store) Update(ctx context.Context, pk, sk string, set Item, expectedVersion int64) error {
	expr := buildUpdate(set, expectedVersion)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.Table),
		Key:                       key(pk, sk),
		UpdateExpression:          aws.String(expr.update),
		ConditionExpression:       aws.String(expr.condition),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
	})
	return wrapStoreErr(err)
}

// QueryPrefix returns every record in a partition whose sort key starts with
// the given prefix, in sort key order.
func (s *Store) QueryPrefix(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	var items []Item
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.config.Table),
		KeyConditionExpression: aws.String("#pk = :pk AND begins_with(#sk, :prefix)"),
		ExpressionAttributeNames: map[string]string{
			"#pk": AttrPK,
			"#sk": AttrSK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

const notExistsCondition = "attribute_not_exists(sk)"

// Tx accumulates items for one atomic TransactWriteItems call. Each item may
// carry its own condition and a domain error to report when that condition
// fails, so callers can tell a slug collision apart from a stale version.
type Tx struct {
	store      *Store
	items      []types.TransactWriteItem
	onConflict []error
}

// Tx starts a new transaction builder.
func (s *Store) Tx() *Tx {
	return &Tx{store: s}
}

// Len returns the number of items accumulated so far.
func (t *Tx) Len() int { return len(t.items) }

// Put adds a put to the transaction. With mustNotExist set, the item carries
// the non-existence condition; a condition failure reports onConflict when
// non-nil, ErrConflict otherwise.
func (t *Tx) Put(item Item, mustNotExist bool, onConflict error) *Tx {
	put := &types.Put{
		TableName: aws.String(t.store.config.Table),
		Item:      item,
	}
	if mustNotExist {
		put.ConditionExpression = aws.String(notExistsCondition)
	}
	t.items = append(t.items, types.TransactWriteItem{Put: put})
	t.onConflict = append(t.onConflict, onConflict)
	return t
}

// Update adds a field-level update to the transaction, same semantics as
// Store.Update.
func (t *Tx) Update(pk, sk string, set Item, expectedVersion int64, onConflict error) *Tx {
	expr := buildUpdate(set, expectedVersion)
	t.items = append(t.items, types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(t.store.config.Table),
			Key:                       key(pk, sk),
			UpdateExpression:          aws.String(expr.update),
			ConditionExpression:       aws.String(expr.condition),
			ExpressionAttributeNames:  expr.names,
			ExpressionAttributeValues: expr.values,
		},
	})
	t.onConflict = append(t.onConflict, onConflict)
	return t
}

// Delete adds an unconditional delete to the transaction.
func (t *Tx) Delete(pk, sk string) *Tx {
	t.items = append(t.items, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(t.store.config.Table),
			Key:       key(pk, sk),
		},
	})
	t.onConflict = append(t.onConflict, nil)
	return t
}

// Run executes the transaction. All items succeed or none do. A failed
// per-item condition is mapped back to that item's domain error via the
// cancellation reasons DynamoDB reports.
func (t *Tx) Run(ctx context.Context) error {
	if len(t.items) == 0 {
		return nil
	}
	_, err := t.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: t.items,
	})
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				if i < len(t.onConflict) && t.onConflict[i] != nil {
					return t.onConflict[i]
				}
				return ErrConflict
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// updateExpr is a built DynamoDB update with its condition.
type updateExpr struct {
	update    string
	condition string
	names     map[string]string
	values    map[string]types.AttributeValue
}

// buildUpdate assembles the SET expression for a field-level update. The
// caller's attributes are applied as-is; version and updated_at are managed
// here so every update bumps the counter exactly once.
func buildUpdate(set Item, expectedVersion int64) updateExpr {
	now := time.Now().UTC().Format(time.RFC3339)

	names := map[string]string{
		"#sk":         AttrSK,
		"#updated_at": "updated_at",
		"#version":    "version",
	}
	values := map[string]types.AttributeValue{
		":updated_at": &types.AttributeValueMemberS{Value: now},
		":one":        &types.AttributeValueMemberN{Value: "1"},
	}

	var clauses []string
	i := 0
	for k, v := range set {
		// Managed fields cannot be overridden by callers.
		if k == AttrPK || k == AttrSK || k == "version" || k == "created_at" || k == "updated_at" {
			continue
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		names[nameKey] = k
		values[valueKey] = v
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	clauses = append(clauses, "#updated_at = :updated_at", "#version = #version + :one")

	condition := "attribute_exists(#sk)"
	if expectedVersion > 0 {
		condition += " AND #version = :expected_version"
		values[":expected_version"] = &types.AttributeValueMemberN{
			Value: strconv.FormatInt(expectedVersion, 10),
		}
	}

	return updateExpr{
		update:    "SET " + strings.Join(clauses, ", "),
		condition: condition,
		names:     names,
		values:    values,
	}
}

// wrapStoreErr maps a single-item write error to the domain error kinds.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConflict
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
