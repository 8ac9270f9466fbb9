package store_test

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

func TestNewRegistry(t *testing.T) {
	r := store.NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}
	if children := r.ChildrenOf(keys.KindTrip); len(children) != 0 {
		t.Errorf("expected empty registry, got %d relationships", len(children))
	}
}

func TestRegistry_Register(t *testing.T) {
	r := store.NewRegistry()

	r.Register(store.Relationship{
		ParentKind: keys.KindTrip,
		ChildKind:  keys.KindTask,
		Index:      keys.IndexTripChildren,
		KindAttr:   keys.AttrPK,
	})

	rels := r.ChildrenOf(keys.KindTrip)
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}
	if rels[0].ChildKind != keys.KindTask {
		t.Errorf("expected ChildKind Task, got %q", rels[0].ChildKind)
	}
	if len(r.ChildrenOf(keys.KindTask)) != 0 {
		t.Error("expected task to not have children")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := store.DefaultRegistry()

	children := r.ChildrenOf(keys.KindTrip)
	if len(children) != 3 {
		t.Fatalf("expected 3 trip children, got %d", len(children))
	}

	want := map[keys.Kind]string{
		keys.KindTask:    keys.AttrPK,
		keys.KindExpense: keys.AttrPK,
		keys.KindUser:    keys.AttrSK,
	}
	for _, rel := range children {
		attr, ok := want[rel.ChildKind]
		if !ok {
			t.Errorf("unexpected child kind %q", rel.ChildKind)
			continue
		}
		if rel.KindAttr != attr {
			t.Errorf("%s: expected KindAttr %q, got %q", rel.ChildKind, attr, rel.KindAttr)
		}
		if rel.Index != keys.IndexTripChildren {
			t.Errorf("%s: expected trip children index, got %q", rel.ChildKind, rel.Index)
		}
	}

	for _, k := range []keys.Kind{keys.KindUser, keys.KindTask, keys.KindExpense} {
		if len(r.ChildrenOf(k)) != 0 {
			t.Errorf("expected %s to have no children", k)
		}
	}
}

func TestRegistry_ChildrenOf_Nonexistent(t *testing.T) {
	r := store.NewRegistry()

	// nil slice is acceptable - len(nil) == 0 and range works on nil slices
	if children := r.ChildrenOf("nonexistent"); len(children) != 0 {
		t.Errorf("expected 0 children for nonexistent parent, got %d", len(children))
	}
	if children := r.ChildrenOf(""); len(children) != 0 {
		t.Errorf("expected 0 children for empty parent, got %d", len(children))
	}
}

func TestRegistry_ChildQuery(t *testing.T) {
	r := store.DefaultRegistry()

	tests := []struct {
		kind       keys.Kind
		filterAttr string
	}{
		{keys.KindTask, keys.AttrPK},
		{keys.KindExpense, keys.AttrPK},
		{keys.KindUser, keys.AttrSK},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			q, err := r.ChildQuery(keys.KindTrip, "t1", tt.kind)
			if err != nil {
				t.Fatalf("ChildQuery: %v", err)
			}
			if q.Index != keys.IndexTripChildren {
				t.Errorf("expected trip children index, got %q", q.Index)
			}
			if q.HashAttr != keys.AttrGSI1 || q.HashValue != "Tript1" {
				t.Errorf("unexpected hash %s=%s", q.HashAttr, q.HashValue)
			}
			if q.FilterAttr != tt.filterAttr || q.FilterPrefix != string(tt.kind) {
				t.Errorf("unexpected filter %s^%s", q.FilterAttr, q.FilterPrefix)
			}
		})
	}
}

func TestRegistry_ChildQuery_Unknown(t *testing.T) {
	r := store.DefaultRegistry()

	if _, err := r.ChildQuery(keys.KindTask, "k1", keys.KindExpense); !errors.Is(err, store.ErrUnknownRelationship) {
		t.Errorf("expected ErrUnknownRelationship, got %v", err)
	}
	if _, err := r.ChildQuery(keys.KindTrip, "t1", keys.KindTrip); !errors.Is(err, store.ErrUnknownRelationship) {
		t.Errorf("expected ErrUnknownRelationship, got %v", err)
	}
}

func TestRelationship_Query_CustomIndex(t *testing.T) {
	rel := store.Relationship{
		ParentKind: keys.KindUser,
		ChildKind:  keys.KindTrip,
		Index:      keys.IndexUserTrips,
		KindAttr:   keys.AttrPK,
	}

	q := rel.Query("u1")
	if q.Index != keys.IndexUserTrips || q.HashAttr != keys.AttrGSI2 || q.HashValue != "Useru1" {
		t.Errorf("unexpected hash %+v", q)
	}
	if q.FilterAttr != keys.AttrPK || q.FilterPrefix != string(keys.KindTrip) {
		t.Errorf("unexpected filter %s^%s", q.FilterAttr, q.FilterPrefix)
	}
}

func TestRegistry_Classify(t *testing.T) {
	r := store.DefaultRegistry()

	item := func(pk, sk string) store.Item {
		return store.Item{
			keys.AttrPK: &types.AttributeValueMemberS{Value: pk},
			keys.AttrSK: &types.AttributeValueMemberS{Value: sk},
		}
	}

	tests := []struct {
		name string
		item store.Item
		kind keys.Kind
		ok   bool
	}{
		{"task", item("Taska", "Taska"), keys.KindTask, true},
		{"expense", item("Expenseb", "Expenseb"), keys.KindExpense, true},
		{"membership", item("Userc", "Userc#Trip1"), keys.KindUser, true},
		{"canonical trip", item("Trip1", "Trip1#Userc"), "", false},
		{"empty", store.Item{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := r.Classify(keys.KindTrip, tt.item)
			if ok != tt.ok || kind != tt.kind {
				t.Errorf("Classify = (%q, %v), want (%q, %v)", kind, ok, tt.kind, tt.ok)
			}
		})
	}
}

func TestRegistry_Classify_UnknownParent(t *testing.T) {
	r := store.DefaultRegistry()

	item := store.Item{keys.AttrPK: &types.AttributeValueMemberS{Value: "Taska"}}
	if _, ok := r.Classify(keys.KindTask, item); ok {
		t.Error("expected no classification under a parent without children")
	}
}
