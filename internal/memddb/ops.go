package memddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func (t *Table) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpGetItem, params); err != nil {
		return nil, err
	}
	if err := t.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	attrs, err := parseProjection(params.ProjectionExpression, params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}

	out := &dynamodb.GetItemOutput{}
	if item := t.load(key); item != nil {
		out.Item = project(item, attrs)
	}
	return out, nil
}

func (t *Table) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpPutItem, params); err != nil {
		return nil, err
	}
	if err := t.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	cond, err := parseCondition(params.ConditionExpression, placeholders{params.ExpressionAttributeNames, params.ExpressionAttributeValues})
	if err != nil {
		return nil, err
	}
	if !matchAll(t.load(key), cond) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	t.store(key, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (t *Table) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpUpdateItem, params); err != nil {
		return nil, err
	}
	if err := t.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	p := placeholders{params.ExpressionAttributeNames, params.ExpressionAttributeValues}
	cond, err := parseCondition(params.ConditionExpression, p)
	if err != nil {
		return nil, err
	}
	actions, err := parseUpdate(params.UpdateExpression, p)
	if err != nil {
		return nil, err
	}

	current := t.load(key)
	if !matchAll(current, cond) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	next := copyItem(current)
	if next == nil {
		next = copyItem(params.Key)
	}
	for _, a := range actions {
		if a.path[0] == t.hashKey || a.path[0] == t.sortKey {
			return nil, validationError("cannot update key attribute %s", a.path[0])
		}
		if err := assign(next, a.path, a.value); err != nil {
			return nil, err
		}
	}
	t.store(key, next)

	out := &dynamodb.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(next)
	}
	return out, nil
}

func (t *Table) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpDeleteItem, params); err != nil {
		return nil, err
	}
	if err := t.checkTable(params.TableName); err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	cond, err := parseCondition(params.ConditionExpression, placeholders{params.ExpressionAttributeNames, params.ExpressionAttributeValues})
	if err != nil {
		return nil, err
	}
	if !matchAll(t.load(key), cond) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	old := t.remove(key)
	out := &dynamodb.DeleteItemOutput{}
	if params.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// Query evaluates the key condition and filter against every item of the
// table or of the named index. Results are ordered by PK then SK.
func (t *Table) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpQuery, params); err != nil {
		return nil, err
	}
	if err := t.checkTable(params.TableName); err != nil {
		return nil, err
	}

	// Sparse index: only items carrying the index key are visible.
	required := t.hashKey
	if params.IndexName != nil {
		idx, ok := t.indexes[*params.IndexName]
		if !ok {
			return nil, validationError("the table does not have the specified index: %s", *params.IndexName)
		}
		required = idx.HashAttr
	}

	p := placeholders{params.ExpressionAttributeNames, params.ExpressionAttributeValues}
	keyCond, err := parseCondition(params.KeyConditionExpression, p)
	if err != nil {
		return nil, err
	}
	if len(keyCond) == 0 {
		return nil, validationError("KeyConditionExpression is required")
	}
	filter, err := parseCondition(params.FilterExpression, p)
	if err != nil {
		return nil, err
	}
	attrs, err := parseProjection(params.ProjectionExpression, params.ExpressionAttributeNames)
	if err != nil {
		return nil, err
	}

	var start *document
	if params.ExclusiveStartKey != nil {
		if start, err = t.keyOf(params.ExclusiveStartKey); err != nil {
			return nil, err
		}
	}

	out := &dynamodb.QueryOutput{}
	var scanned int32
	var last *document
	t.items.Ascend(func(d *document) bool {
		if start != nil && !less(start, d) {
			return true
		}
		if _, ok := d.item[required]; !ok || !matchAll(d.item, keyCond) {
			return true
		}
		if t.pageSize > 0 && int(scanned) == t.pageSize {
			out.LastEvaluatedKey = t.keyAttrs(last)
			return false
		}
		scanned++
		last = d
		if matchAll(d.item, filter) {
			out.Items = append(out.Items, project(d.item, attrs))
		}
		return true
	})
	out.Count = int32(len(out.Items))
	out.ScannedCount = scanned
	return out, nil
}

func (t *Table) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpBatchGetItem, params); err != nil {
		return nil, err
	}

	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]types.AttributeValue{}}
	for table, req := range params.RequestItems {
		if err := t.checkTable(aws.String(table)); err != nil {
			return nil, err
		}
		if len(req.Keys) > maxBatchGet {
			return nil, validationError("too many items requested for the BatchGetItem call")
		}
		attrs, err := parseProjection(req.ProjectionExpression, req.ExpressionAttributeNames)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(req.Keys))
		for _, k := range req.Keys {
			key, err := t.keyOf(k)
			if err != nil {
				return nil, err
			}
			if seen[key.id()] {
				return nil, validationError("provided list of item keys contains duplicates")
			}
			seen[key.id()] = true
			if item := t.load(key); item != nil {
				out.Responses[table] = append(out.Responses[table], project(item, attrs))
			}
		}
	}
	return out, nil
}

func (t *Table) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpBatchWriteItem, params); err != nil {
		return nil, err
	}

	for table, reqs := range params.RequestItems {
		if err := t.checkTable(aws.String(table)); err != nil {
			return nil, err
		}
		if len(reqs) > maxBatchWrite {
			return nil, validationError("too many items in the BatchWriteItem request")
		}
		for _, r := range reqs {
			switch {
			case r.PutRequest != nil:
				key, err := t.keyOf(r.PutRequest.Item)
				if err != nil {
					return nil, err
				}
				t.store(key, r.PutRequest.Item)
			case r.DeleteRequest != nil:
				key, err := t.keyOf(r.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				t.remove(key)
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

// TransactWriteItems checks every condition before applying any write.
// A failed condition cancels the transaction with per-item reasons.
func (t *Table) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.begin(OpTransactWriteItems, params); err != nil {
		return nil, err
	}
	if len(params.TransactItems) > maxTransactSize {
		return nil, validationError("member must have length less than or equal to %d", maxTransactSize)
	}

	type write struct {
		key  *document
		item map[string]types.AttributeValue
	}
	writes := make([]write, 0, len(params.TransactItems))
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	seen := make(map[string]bool, len(params.TransactItems))
	failed := false

	for i, ti := range params.TransactItems {
		var (
			table *string
			key   map[string]types.AttributeValue
			cond  *string
			names map[string]string
			vals  map[string]types.AttributeValue
			item  map[string]types.AttributeValue
		)
		switch {
		case ti.Put != nil:
			table, key, cond, names, vals, item = ti.Put.TableName, ti.Put.Item, ti.Put.ConditionExpression, ti.Put.ExpressionAttributeNames, ti.Put.ExpressionAttributeValues, ti.Put.Item
		case ti.Delete != nil:
			table, key, cond, names, vals = ti.Delete.TableName, ti.Delete.Key, ti.Delete.ConditionExpression, ti.Delete.ExpressionAttributeNames, ti.Delete.ExpressionAttributeValues
		case ti.ConditionCheck != nil:
			table, key, cond, names, vals = ti.ConditionCheck.TableName, ti.ConditionCheck.Key, ti.ConditionCheck.ConditionExpression, ti.ConditionCheck.ExpressionAttributeNames, ti.ConditionCheck.ExpressionAttributeValues
		default:
			return nil, validationError("unsupported transact item %d", i)
		}

		if err := t.checkTable(table); err != nil {
			return nil, err
		}
		k, err := t.keyOf(key)
		if err != nil {
			return nil, err
		}
		if seen[k.id()] {
			return nil, validationError("transaction request cannot include multiple operations on one item")
		}
		seen[k.id()] = true

		clauses, err := parseCondition(cond, placeholders{names, vals})
		if err != nil {
			return nil, err
		}
		reasons[i].Code = aws.String("None")
		if !matchAll(t.load(k), clauses) {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			reasons[i].Message = aws.String("The conditional request failed")
			failed = true
		}
		if ti.ConditionCheck == nil {
			writes = append(writes, write{key: k, item: item})
		}
	}

	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String(fmt.Sprintf("Transaction cancelled, please refer cancellation reasons for specific reasons %s", codes(reasons))),
			CancellationReasons: reasons,
		}
	}

	for _, w := range writes {
		if w.item != nil {
			t.store(w.key, w.item)
		} else {
			t.remove(w.key)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (t *Table) keyAttrs(d *document) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		t.hashKey: &types.AttributeValueMemberS{Value: d.pk},
		t.sortKey: &types.AttributeValueMemberS{Value: d.sk},
	}
}

func codes(reasons []types.CancellationReason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = aws.ToString(r.Code)
	}
	return out
}
