package store

import (
	"fmt"
	"strings"

	"github.com/jacentio/tripdb/internal/keys"
)

// Relationship defines how child records of one kind point at a parent.
type Relationship struct {
	// ParentKind is the kind the child belongs to (e.g. keys.KindTrip).
	ParentKind keys.Kind

	// ChildKind is the kind of the child record (e.g. keys.KindTask).
	ChildKind keys.Kind

	// Index is the index whose hash key holds the parent's ref.
	Index keys.Index

	// KindAttr is the child attribute whose prefix identifies ChildKind.
	KindAttr string
}

// matches reports whether item is a child record described by r.
func (r Relationship) matches(item Item) bool {
	return strings.HasPrefix(item.String(r.KindAttr), string(r.ChildKind))
}

// Query selects the children described by r under the parent with the given id.
func (r Relationship) Query(parentID string) keys.Query {
	q := keys.IndexQuery(r.Index, r.ParentKind.Ref(parentID))
	q.FilterAttr = r.KindAttr
	q.FilterPrefix = string(r.ChildKind)
	return q
}

// Registry holds the known parent-child relationships used by cascades.
type Registry struct {
	byParent map[keys.Kind][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{byParent: make(map[keys.Kind][]Relationship)}
}

// DefaultRegistry registers the trip's children: tasks and expenses by
// partition key, memberships by sort key, all linked through GSI1.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{
		ParentKind: keys.KindTrip,
		ChildKind:  keys.KindTask,
		Index:      keys.IndexTripChildren,
		KindAttr:   keys.AttrPK,
	})
	r.Register(Relationship{
		ParentKind: keys.KindTrip,
		ChildKind:  keys.KindExpense,
		Index:      keys.IndexTripChildren,
		KindAttr:   keys.AttrPK,
	})
	r.Register(Relationship{
		ParentKind: keys.KindTrip,
		ChildKind:  keys.KindUser,
		Index:      keys.IndexTripChildren,
		KindAttr:   keys.AttrSK,
	})
	return r
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.byParent[rel.ParentKind] = append(r.byParent[rel.ParentKind], rel)
}

// ChildrenOf returns all child relationships for a given parent kind.
func (r *Registry) ChildrenOf(parent keys.Kind) []Relationship {
	return r.byParent[parent]
}

// ChildQuery returns the query selecting children of kind child under the
// parent record identified by parent and parentID.
func (r *Registry) ChildQuery(parent keys.Kind, parentID string, child keys.Kind) (keys.Query, error) {
	for _, rel := range r.ChildrenOf(parent) {
		if rel.ChildKind == child {
			return rel.Query(parentID), nil
		}
	}
	return keys.Query{}, fmt.Errorf("%s under %s: %w", child, parent, ErrUnknownRelationship)
}

// Classify returns the child kind of an item found under a parent of the
// given kind. The first matching relationship wins.
func (r *Registry) Classify(parent keys.Kind, item Item) (keys.Kind, bool) {
	for _, rel := range r.byParent[parent] {
		if rel.matches(item) {
			return rel.ChildKind, true
		}
	}
	return "", false
}
