// Package memddb is an in-memory stand-in for a single DynamoDB table with
// hash-only global secondary indexes. It implements the subset of the
// DynamoDB client used by the store and understands the expressions
// produced by the aws-sdk-go-v2 expression builder.
package memddb

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/btree"
)

// Operation names accepted by Hook and Calls.
const (
	OpGetItem            = "GetItem"
	OpPutItem            = "PutItem"
	OpUpdateItem         = "UpdateItem"
	OpDeleteItem         = "DeleteItem"
	OpQuery              = "Query"
	OpBatchGetItem       = "BatchGetItem"
	OpBatchWriteItem     = "BatchWriteItem"
	OpTransactWriteItems = "TransactWriteItems"
)

// Service limits enforced on multi-item calls.
const (
	maxBatchWrite   = 25
	maxBatchGet     = 100
	maxTransactSize = 100
)

// Hook is consulted before every call. A non-nil error fails the call
// without touching the table.
type Hook func(op string, input any) error

// Index is a global secondary index keyed by a single hash attribute.
type Index struct {
	Name     string
	HashAttr string
}

// Table is a concurrency-safe in-memory table keyed by string PK and SK.
type Table struct {
	name    string
	hashKey string
	sortKey string
	indexes map[string]Index

	mu       sync.Mutex
	items    *btree.BTreeG[*document]
	hook     Hook
	calls    map[string]int
	pageSize int
}

type document struct {
	pk, sk string
	item   map[string]types.AttributeValue
}

func (d *document) id() string {
	return d.pk + "\x00" + d.sk
}

func less(l, r *document) bool {
	if l.pk != r.pk {
		return l.pk < r.pk
	}
	return l.sk < r.sk
}

// Option configures a Table.
type Option func(*Table)

// WithIndex registers a global secondary index.
func WithIndex(name, hashAttr string) Option {
	return func(t *Table) {
		t.indexes[name] = Index{Name: name, HashAttr: hashAttr}
	}
}

// WithKeySchema overrides the primary key attribute names. Default: PK, SK.
func WithKeySchema(hashKey, sortKey string) Option {
	return func(t *Table) {
		t.hashKey = hashKey
		t.sortKey = sortKey
	}
}

// WithPageSize makes Query return at most n items per page, so callers
// must follow LastEvaluatedKey.
func WithPageSize(n int) Option {
	return func(t *Table) {
		t.pageSize = n
	}
}

// New creates an empty table.
func New(name string, opts ...Option) *Table {
	t := &Table{
		name:    name,
		hashKey: "PK",
		sortKey: "SK",
		indexes: make(map[string]Index),
		items:   btree.NewG(16, less),
		calls:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetHook installs h; nil removes it. The hook runs with the table
// locked and must not call back into it.
func (t *Table) SetHook(h Hook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hook = h
}

// Calls returns how many times op was invoked, including failed calls.
func (t *Table) Calls(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

// Len returns the number of stored items.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Len()
}

// Items returns copies of all stored items ordered by PK then SK.
func (t *Table) Items() []map[string]types.AttributeValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]types.AttributeValue, 0, t.items.Len())
	t.items.Ascend(func(d *document) bool {
		out = append(out, copyItem(d.item))
		return true
	})
	return out
}

// Lookup returns a copy of the item stored under pk/sk.
func (t *Table) Lookup(pk, sk string) (map[string]types.AttributeValue, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.items.Get(&document{pk: pk, sk: sk})
	if !ok {
		return nil, false
	}
	return copyItem(d.item), true
}

// begin records the call and runs the hook. The caller must hold mu.
func (t *Table) begin(op string, input any) error {
	t.calls[op]++
	if t.hook != nil {
		return t.hook(op, input)
	}
	return nil
}

func (t *Table) checkTable(name *string) error {
	if name == nil || *name != t.name {
		return validationError("Requested resource not found: table %v", deref(name))
	}
	return nil
}

// keyOf extracts the primary key from a key map or full item.
func (t *Table) keyOf(item map[string]types.AttributeValue) (*document, error) {
	pk, ok := item[t.hashKey].(*types.AttributeValueMemberS)
	if !ok || pk.Value == "" {
		return nil, validationError("missing key attribute %s", t.hashKey)
	}
	sk, ok := item[t.sortKey].(*types.AttributeValueMemberS)
	if !ok {
		return nil, validationError("missing key attribute %s", t.sortKey)
	}
	return &document{pk: pk.Value, sk: sk.Value}, nil
}

func (t *Table) load(key *document) map[string]types.AttributeValue {
	d, ok := t.items.Get(key)
	if !ok {
		return nil
	}
	return d.item
}

func (t *Table) store(key *document, item map[string]types.AttributeValue) {
	t.items.ReplaceOrInsert(&document{pk: key.pk, sk: key.sk, item: copyItem(item)})
}

func (t *Table) remove(key *document) map[string]types.AttributeValue {
	d, ok := t.items.Delete(key)
	if !ok {
		return nil
	}
	return d.item
}

func validationError(format string, args ...any) error {
	return &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: fmt.Sprintf(format, args...),
		Fault:   smithy.FaultClient,
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
