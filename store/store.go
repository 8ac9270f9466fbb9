package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/tripdb/internal/keys"
)

// Store provides single-table DynamoDB operations.
type Store struct {
	client   DynamoDBAPI
	config   Config
	registry *Registry
}

// New creates a new Store instance using the default relationship registry.
func New(client DynamoDBAPI, config Config) *Store {
	return NewWithRegistry(client, config, DefaultRegistry())
}

// NewWithRegistry creates a new Store instance with a relationship registry.
func NewWithRegistry(client DynamoDBAPI, config Config, registry *Registry) *Store {
	config.validate()
	return &Store{
		client:   client,
		config:   config,
		registry: registry,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// Registry returns the relationship registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Get retrieves an item by key, returning ErrNotFound if missing.
// When projection is given only those top-level attributes are returned.
func (s *Store) Get(ctx context.Context, key keys.Key, projection ...string) (Item, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       keyAttributes(key),
	}
	if proj, ok := projectionOf(projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	result, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if len(result.Item) == 0 {
		return nil, ErrNotFound
	}
	return Item(result.Item), nil
}

// Query runs a key/index query and returns every matching item.
// No match is an empty result, not an error.
func (s *Store) Query(ctx context.Context, q keys.Query, projection ...string) ([]Item, error) {
	input, err := s.queryInput(q, projection)
	if err != nil {
		return nil, err
	}

	var items []Item
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s=%s: %w", q.HashAttr, q.HashValue, err)
		}
		for _, raw := range page.Items {
			items = append(items, Item(raw))
		}
	}
	return items, nil
}

func (s *Store) queryInput(q keys.Query, projection []string) (*dynamodb.QueryInput, error) {
	keyCond := expression.Key(q.HashAttr).Equal(expression.Value(q.HashValue))
	if q.RangeAttr != "" {
		keyCond = keyCond.And(expression.Key(q.RangeAttr).BeginsWith(q.RangePrefix))
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if q.FilterAttr != "" {
		builder = builder.WithFilter(expression.Name(q.FilterAttr).BeginsWith(q.FilterPrefix))
	}
	if proj, ok := projectionOf(projection); ok {
		builder = builder.WithProjection(proj)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if name := s.config.IndexName(q.Index); name != "" {
		input.IndexName = aws.String(name)
	}
	return input, nil
}

// Put writes an entity unconditionally.
func (s *Store) Put(ctx context.Context, e Entity) error {
	item, err := marshalEntity(e)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", e.EntityKey(), err)
	}
	return nil
}

// Create writes an entity, failing with ErrAlreadyExists if its key is taken.
func (s *Store) Create(ctx context.Context, e Entity) error {
	put, err := s.createPut(e)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 put.TableName,
		Item:                      put.Item,
		ConditionExpression:       put.ConditionExpression,
		ExpressionAttributeNames:  put.ExpressionAttributeNames,
		ExpressionAttributeValues: put.ExpressionAttributeValues,
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", e.EntityKey(), err)
	}
	return nil
}

func (s *Store) createPut(e Entity) (*types.Put, error) {
	item, err := marshalEntity(e)
	if err != nil {
		return nil, err
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(keys.AttrPK))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build create condition: %w", err)
	}
	return &types.Put{
		TableName:                 aws.String(s.config.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// Update applies changes to an existing item and returns the item as it is
// after the update. A missing item yields ErrNotFound rather than creating one.
func (s *Store) Update(ctx context.Context, key keys.Key, changes Changes) (Item, error) {
	if changes.Empty() {
		return nil, fmt.Errorf("update %s: no changes", key)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(changes.builder()).
		WithCondition(expression.AttributeExists(expression.Name(keys.AttrPK))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       keyAttributes(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}
	return Item(result.Attributes), nil
}

// Delete removes an item by key. Deleting a missing item succeeds.
func (s *Store) Delete(ctx context.Context, key keys.Key) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       keyAttributes(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// BatchPut writes entities with BatchWriteItem in chunks of MaxBatchWriteSize.
// The writes are not atomic; any unprocessed item fails the call with ErrUnprocessed.
func (s *Store) BatchPut(ctx context.Context, entities ...Entity) error {
	requests := make([]types.WriteRequest, 0, len(entities))
	for _, e := range entities {
		item, err := marshalEntity(e)
		if err != nil {
			return err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)
	for _, c := range chunk(requests, MaxBatchWriteSize) {
		g.Go(func() error {
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.config.TableName: c},
			})
			if err != nil {
				return fmt.Errorf("batch write: %w", err)
			}
			if n := len(out.UnprocessedItems[s.config.TableName]); n > 0 {
				return fmt.Errorf("batch write: %d of %d: %w", n, len(c), ErrUnprocessed)
			}
			return nil
		})
	}
	return g.Wait()
}

// BatchGet fetches items by key in parallel chunks of MaxBatchGetSize.
// Missing keys are absent from the result; result order is unspecified.
func (s *Store) BatchGet(ctx context.Context, ks []keys.Key, projection ...string) ([]Item, error) {
	if len(ks) == 0 {
		return nil, nil
	}

	var names map[string]string
	var projExpr *string
	if proj, ok := projectionOf(projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("build projection: %w", err)
		}
		names = expr.Names()
		projExpr = expr.Projection()
	}

	attrs := make([]map[string]types.AttributeValue, 0, len(ks))
	for _, k := range uniqueKeys(ks) {
		attrs = append(attrs, keyAttributes(k))
	}

	chunks := chunk(attrs, MaxBatchGetSize)
	results := make([][]Item, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)
	for i, c := range chunks {
		g.Go(func() error {
			out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: map[string]types.KeysAndAttributes{
					s.config.TableName: {
						Keys:                     c,
						ProjectionExpression:     projExpr,
						ExpressionAttributeNames: names,
					},
				},
			})
			if err != nil {
				return fmt.Errorf("batch get: %w", err)
			}
			if n := len(out.UnprocessedKeys[s.config.TableName].Keys); n > 0 {
				return fmt.Errorf("batch get: %d of %d: %w", n, len(c), ErrUnprocessed)
			}
			for _, raw := range out.Responses[s.config.TableName] {
				results[i] = append(results[i], Item(raw))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []Item
	for _, r := range results {
		items = append(items, r...)
	}
	return items, nil
}

// TransactCreate creates all entities atomically. Each put fails the whole
// transaction if its key already exists.
func (s *Store) TransactCreate(ctx context.Context, entities ...Entity) error {
	if len(entities) > MaxTransactionSize {
		return ErrTooManyItems
	}
	items := make([]types.TransactWriteItem, 0, len(entities))
	for _, e := range entities {
		put, err := s.createPut(e)
		if err != nil {
			return err
		}
		items = append(items, types.TransactWriteItem{Put: put})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err)
}

// TransactDelete deletes all keys atomically.
func (s *Store) TransactDelete(ctx context.Context, ks []keys.Key) error {
	ks = uniqueKeys(ks)
	if len(ks) == 0 {
		return nil
	}
	if len(ks) > MaxTransactionSize {
		return ErrTooManyItems
	}
	items := make([]types.TransactWriteItem, 0, len(ks))
	for _, k := range ks {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.config.TableName),
				Key:       keyAttributes(k),
			},
		})
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err)
}

// mapTransactionError maps a cancelled transaction caused by a failed
// condition onto ErrAlreadyExists (the only condition the Store sets on
// transactional writes).
func mapTransactionError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrAlreadyExists
			}
		}
	}
	return fmt.Errorf("transact write: %w", err)
}

// chunk splits s into consecutive slices of at most size elements.
func chunk[T any](s []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(s); i += size {
		end := i + size
		if end > len(s) {
			end = len(s)
		}
		out = append(out, s[i:end])
	}
	return out
}

// uniqueKeys drops repeated keys, keeping first occurrences in order.
func uniqueKeys(ks []keys.Key) []keys.Key {
	seen := make(map[keys.Key]bool, len(ks))
	out := make([]keys.Key, 0, len(ks))
	for _, k := range ks {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
