// Package store provides the single-table DynamoDB primitives used by the trip
// planner access layer.
//
// All entity kinds share one table addressed by a composite key (PK, SK). Two
// sparse global secondary indexes answer the reverse lookups:
//
//   - GSI1 ("Trips-Users-view"): records belonging to a trip (memberships,
//     tasks, expenses), narrowed by a key prefix filter.
//   - GSI2 ("Users-Trips-view"): canonical trip records owned by a user.
//
// Keys and index values are computed by the internal keys package; this
// package turns a [keys.Query] or [keys.Key] into DynamoDB requests built with
// the expression builder and maps SDK failures onto package errors.
//
// # Client
//
// The Store talks to a [DynamoDBAPI], satisfied by *dynamodb.Client:
//
//	client := dynamodb.NewFromConfig(awsCfg)
//	s := store.New(client, store.Config{TableName: "trips"})
//
// # Configuration
//
// Use [DefaultConfig] and override the table name. Transactional controls
// whether multi-item writes use TransactWriteItems or batch/parallel calls:
//
//	cfg := store.DefaultConfig()
//	cfg.TableName = os.Getenv("DYNAMODB_TABLE_NAME")
//
// # Errors
//
//   - [ErrNotFound] - item doesn't exist (Get, conditional Update)
//   - [ErrAlreadyExists] - conditional create hit an existing item
//   - [ErrUnprocessed] - a batch call returned unprocessed items or keys
//   - [ErrTooManyItems] - a transaction would exceed the DynamoDB item limit
package store
