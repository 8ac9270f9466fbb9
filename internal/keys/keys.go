// Package keys defines how trip planner entities map onto the single table:
// prefixed references, primary keys and the values stored in the two
// reverse-lookup indexes.
package keys

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is the type tag prepended to every id before it is used as a key component.
type Kind string

const (
	KindUser    Kind = "User"
	KindTrip    Kind = "Trip"
	KindTask    Kind = "Task"
	KindExpense Kind = "Expense"
)

// Kinds lists every known kind.
var Kinds = []Kind{KindUser, KindTrip, KindTask, KindExpense}

// Table attribute names.
const (
	AttrPK   = "PK"
	AttrSK   = "SK"
	AttrGSI1 = "GSI1"
	AttrGSI2 = "GSI2"
)

// Separator joins the two refs of a composite sort key.
const Separator = "#"

var (
	// ErrEmptyID is returned for a missing id.
	ErrEmptyID = errors.New("keys: id is empty")

	// ErrPrefixedID is returned when an id already carries its kind prefix.
	ErrPrefixedID = errors.New("keys: id already carries a type prefix")

	// ErrUnknownKind is returned when a ref starts with no known kind.
	ErrUnknownKind = errors.New("keys: unknown kind")
)

// Ref returns the prefixed reference for id (e.g. "Trip" + id).
func (k Kind) Ref(id string) string {
	return string(k) + id
}

// Strip removes the kind prefix from ref. The boolean is false when ref
// does not carry the prefix.
func (k Kind) Strip(ref string) (string, bool) {
	if !strings.HasPrefix(ref, string(k)) {
		return ref, false
	}
	return strings.TrimPrefix(ref, string(k)), true
}

func (k Kind) String() string { return string(k) }

// NewID generates a fresh random id (without prefix).
func NewID() string {
	return uuid.NewString()
}

// ValidateID checks an id supplied from outside before it is turned into a ref.
func ValidateID(kind Kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s: %w", kind, ErrEmptyID)
	}
	if strings.HasPrefix(id, string(kind)) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrPrefixedID)
	}
	return nil
}

// Parse splits a ref into its kind and id. Only the leading ref of a
// composite sort key is considered.
func Parse(ref string) (Kind, string, error) {
	head, _, _ := strings.Cut(ref, Separator)
	for _, k := range Kinds {
		if id, ok := k.Strip(head); ok {
			return k, id, nil
		}
	}
	return "", "", fmt.Errorf("%q: %w", ref, ErrUnknownKind)
}

// Key is a table primary key.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string {
	return k.PK + "|" + k.SK
}

// Layout is the complete key placement of one record: its primary key
// and, when set, its values in the two indexes.
type Layout struct {
	Key
	GSI1 string
	GSI2 string
}

// UserLayout places a user profile: PK=SK=User<id>.
func UserLayout(userID string) Layout {
	ref := KindUser.Ref(userID)
	return Layout{Key: Key{PK: ref, SK: ref}}
}

// TripLayout places the canonical trip record. The sort key encodes the
// owner and GSI2 points back at the owner for "trips of user" lookups.
func TripLayout(tripID, ownerID string) Layout {
	trip := KindTrip.Ref(tripID)
	owner := KindUser.Ref(ownerID)
	return Layout{
		Key:  Key{PK: trip, SK: trip + Separator + owner},
		GSI2: owner,
	}
}

// MembershipLayout places the user-trip edge under the user's partition,
// with GSI1 pointing at the trip.
func MembershipLayout(userID, tripID string) Layout {
	user := KindUser.Ref(userID)
	trip := KindTrip.Ref(tripID)
	return Layout{
		Key:  Key{PK: user, SK: user + Separator + trip},
		GSI1: trip,
	}
}

// TaskLayout places a task owned by tripID.
func TaskLayout(taskID, tripID string) Layout {
	return childLayout(KindTask, taskID, tripID)
}

// ExpenseLayout places an expense owned by tripID.
func ExpenseLayout(expenseID, tripID string) Layout {
	return childLayout(KindExpense, expenseID, tripID)
}

func childLayout(kind Kind, id, tripID string) Layout {
	ref := kind.Ref(id)
	return Layout{
		Key:  Key{PK: ref, SK: ref},
		GSI1: KindTrip.Ref(tripID),
	}
}

// EntityKey is the direct key of a record stored with PK=SK (users, tasks, expenses).
func EntityKey(kind Kind, id string) Key {
	ref := kind.Ref(id)
	return Key{PK: ref, SK: ref}
}
