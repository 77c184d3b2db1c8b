// Package storetest provides an in-memory DynamoDB fake for package tests.
//
// The fake implements the store.API surface and emulates exactly the
// expression dialect the store layer emits: attribute_not_exists /
// attribute_exists conditions with an optional version check, SET update
// expressions with a version increment, and pk + begins_with(sk) key
// conditions. Transactions are all-or-nothing with per-item cancellation
// reasons, matching DynamoDB's TransactWriteItems contract.
package storetest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Fake is an in-memory single-table DynamoDB stand-in. Safe for concurrent
// use.
type Fake struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	fail  error
}

// New creates an empty fake table.
func New() *Fake {
	return &Fake{items: make(map[string]map[string]types.AttributeValue)}
}

// FailNext makes the next API call return err, simulating a store outage.
func (f *Fake) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

// Item returns a copy of the record at (pk, sk), or nil if absent.
func (f *Fake) Item(pk, sk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[pk+"\x00"+sk]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Count returns the number of stored records.
func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Seed stores a record directly, bypassing conditions. For test setup.
func (f *Fake) Seed(item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[itemKey(item)] = copyItem(item)
}

func (f *Fake) takeFailure() error {
	err := f.fail
	f.fail = nil
	return err
}

// GetItem implements store.API.
func (f *Fake) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	item, ok := f.items[itemKey(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

// PutItem implements store.API.
func (f *Fake) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	k := itemKey(in.Item)
	if !checkCondition(aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues, f.items[k]) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem implements store.API.
func (f *Fake) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	delete(f.items, itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// UpdateItem implements store.API.
func (f *Fake) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	k := itemKey(in.Key)
	existing := f.items[k]
	if !checkCondition(aws.ToString(in.ConditionExpression), in.ExpressionAttributeValues, existing) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	if existing == nil {
		existing = copyItem(in.Key)
	}
	applyUpdate(existing, aws.ToString(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	f.items[k] = existing
	return &dynamodb.UpdateItemOutput{}, nil
}

// Query implements store.API. Supports the dialect the store emits:
// "#pk = :pk" optionally AND "begins_with(#sk, :prefix)".
func (f *Fake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}

	pkVal := stringValue(in.ExpressionAttributeValues[":pk"])
	prefix := ""
	if strings.Contains(aws.ToString(in.KeyConditionExpression), "begins_with") {
		prefix = stringValue(in.ExpressionAttributeValues[":prefix"])
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if stringValue(item["pk"]) != pkVal {
			continue
		}
		if prefix != "" && !strings.HasPrefix(stringValue(item["sk"]), prefix) {
			continue
		}
		matched = append(matched, copyItem(item))
	}
	sort.Slice(matched, func(i, j int) bool {
		return stringValue(matched[i]["sk"]) < stringValue(matched[j]["sk"])
	})
	return &dynamodb.QueryOutput{Items: matched, Count: int32(len(matched))}, nil
}

// TransactWriteItems implements store.API. Conditions are evaluated against
// the pre-transaction state; if any fails, nothing is applied and the
// cancellation reasons identify the failing item.
func (f *Fake) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, item := range in.TransactItems {
		ok := true
		switch {
		case item.Put != nil:
			ok = checkCondition(aws.ToString(item.Put.ConditionExpression), item.Put.ExpressionAttributeValues, f.items[itemKey(item.Put.Item)])
		case item.Update != nil:
			ok = checkCondition(aws.ToString(item.Update.ConditionExpression), item.Update.ExpressionAttributeValues, f.items[itemKey(item.Update.Key)])
		case item.ConditionCheck != nil:
			ok = checkCondition(aws.ToString(item.ConditionCheck.ConditionExpression), item.ConditionCheck.ExpressionAttributeValues, f.items[itemKey(item.ConditionCheck.Key)])
		}
		if ok {
			reasons[i] = types.CancellationReason{Code: aws.String("None")}
		} else {
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, item := range in.TransactItems {
		switch {
		case item.Put != nil:
			f.items[itemKey(item.Put.Item)] = copyItem(item.Put.Item)
		case item.Delete != nil:
			delete(f.items, itemKey(item.Delete.Key))
		case item.Update != nil:
			k := itemKey(item.Update.Key)
			existing := f.items[k]
			if existing == nil {
				existing = copyItem(item.Update.Key)
			}
			applyUpdate(existing, aws.ToString(item.Update.UpdateExpression), item.Update.ExpressionAttributeNames, item.Update.ExpressionAttributeValues)
			f.items[k] = existing
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// --- expression evaluation ---

func itemKey(item map[string]types.AttributeValue) string {
	return stringValue(item["pk"]) + "\x00" + stringValue(item["sk"])
}

func stringValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// checkCondition evaluates the condition expressions the store layer emits.
func checkCondition(cond string, values map[string]types.AttributeValue, existing map[string]types.AttributeValue) bool {
	switch {
	case cond == "":
		return true
	case strings.Contains(cond, "attribute_not_exists"):
		return existing == nil
	default:
		if existing == nil {
			return false
		}
		if strings.Contains(cond, ":expected_version") {
			want, ok := values[":expected_version"].(*types.AttributeValueMemberN)
			if !ok {
				return false
			}
			got, ok := existing["version"].(*types.AttributeValueMemberN)
			return ok && got.Value == want.Value
		}
		return true
	}
}

// applyUpdate interprets "SET a = :v, b = b + :inc" expressions.
func applyUpdate(item map[string]types.AttributeValue, expr string, names map[string]string, values map[string]types.AttributeValue) {
	expr = strings.TrimPrefix(expr, "SET ")
	for _, clause := range strings.Split(expr, ", ") {
		parts := strings.SplitN(clause, " = ", 2)
		if len(parts) != 2 {
			continue
		}
		target := resolveName(strings.TrimSpace(parts[0]), names)
		rhs := strings.TrimSpace(parts[1])

		if idx := strings.Index(rhs, " + "); idx >= 0 {
			valueKey := strings.TrimSpace(rhs[idx+3:])
			cur := int64(0)
			if n, ok := item[target].(*types.AttributeValueMemberN); ok {
				cur, _ = strconv.ParseInt(n.Value, 10, 64)
			}
			inc := int64(0)
			if n, ok := values[valueKey].(*types.AttributeValueMemberN); ok {
				inc, _ = strconv.ParseInt(n.Value, 10, 64)
			}
			item[target] = &types.AttributeValueMemberN{Value: strconv.FormatInt(cur+inc, 10)}
			continue
		}
		if v, ok := values[rhs]; ok {
			item[target] = v
		}
	}
}

func resolveName(placeholder string, names map[string]string) string {
	if strings.HasPrefix(placeholder, "#") {
		if name, ok := names[placeholder]; ok {
			return name
		}
	}
	return placeholder
}

// copyItem deep-copies an item so callers cannot mutate stored state.
func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(av types.AttributeValue) types.AttributeValue {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return &types.AttributeValueMemberS{Value: v.Value}
	case *types.AttributeValueMemberN:
		return &types.AttributeValueMemberN{Value: v.Value}
	case *types.AttributeValueMemberBOOL:
		return &types.AttributeValueMemberBOOL{Value: v.Value}
	case *types.AttributeValueMemberNULL:
		return &types.AttributeValueMemberNULL{Value: v.Value}
	case *types.AttributeValueMemberB:
		b := make([]byte, len(v.Value))
		copy(b, v.Value)
		return &types.AttributeValueMemberB{Value: b}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), v.Value...)}
	case *types.AttributeValueMemberL:
		list := make([]types.AttributeValue, len(v.Value))
		for i, item := range v.Value {
			list[i] = copyValue(item)
		}
		return &types.AttributeValueMemberL{Value: list}
	case *types.AttributeValueMemberM:
		return &types.AttributeValueMemberM{Value: copyItem(v.Value)}
	default:
		return av
	}
}
