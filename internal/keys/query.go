package keys

// Index identifies one of the two reverse-lookup indexes. The physical
// index names are configured on the store.
type Index string

const (
	// IndexNone targets the table's primary key.
	IndexNone Index = ""

	// IndexTripChildren is keyed by GSI1: records belonging to a trip.
	IndexTripChildren Index = AttrGSI1

	// IndexUserTrips is keyed by GSI2: trips owned by a user.
	IndexUserTrips Index = AttrGSI2
)

// Query describes a single-partition lookup: an equality on the hash
// attribute, an optional sort key prefix and an optional prefix filter.
type Query struct {
	Index Index

	HashAttr  string
	HashValue string

	// RangeAttr/RangePrefix add a begins_with key condition.
	RangeAttr   string
	RangePrefix string

	// FilterAttr/FilterPrefix add a begins_with filter applied after the key condition.
	FilterAttr   string
	FilterPrefix string
}

// PrimaryQuery selects items in partition pk whose sort key starts with skPrefix.
func PrimaryQuery(pk, skPrefix string) Query {
	return Query{
		HashAttr:    AttrPK,
		HashValue:   pk,
		RangeAttr:   AttrSK,
		RangePrefix: skPrefix,
	}
}

// EntityQuery selects the records of one entity, excluding edges that share
// its partition (a user's memberships share PK with the user profile).
func EntityQuery(kind Kind, id string) Query {
	return PrimaryQuery(kind.Ref(id), string(kind))
}

// TripRecordsQuery selects the canonical record(s) of a trip by exact trip ref prefix.
func TripRecordsQuery(tripID string) Query {
	ref := KindTrip.Ref(tripID)
	return PrimaryQuery(ref, ref)
}

// IndexQuery selects the items of one partition of a secondary index.
// The index's hash attribute shares its name.
func IndexQuery(idx Index, value string) Query {
	return Query{
		Index:     idx,
		HashAttr:  string(idx),
		HashValue: value,
	}
}

// AllChildrenQuery selects every record pointing at the trip through GSI1.
func AllChildrenQuery(tripID string) Query {
	return IndexQuery(IndexTripChildren, KindTrip.Ref(tripID))
}

// OwnerQuery selects the canonical trip records owned by a user.
func OwnerQuery(userID string) Query {
	return IndexQuery(IndexUserTrips, KindUser.Ref(userID))
}
