package planner

import (
	"github.com/jacentio/tripdb/internal/keys"
)

// Table attribute names beyond the key attributes.
const (
	attrTripName    = "trip_name"
	attrTripStatus  = "trip_status"
	attrTaskObject  = "task_object"
	attrExpenseObj  = "expense_object"
	attrUserData    = "user_data"
	pathTaskName    = attrTaskObject + ".task_name"
	pathTaskStatus  = attrTaskObject + ".task_status"
	pathExpenseName = attrExpenseObj + ".expense_name"
	pathAmount      = attrExpenseObj + ".amount"
)

// Initial statuses.
const (
	TripStatusInProgress = "Progress"
	TaskStatusIncomplete = "incomplete"
)

type tripRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI2       string `dynamodbav:"GSI2,omitempty"`
	TripName   string `dynamodbav:"trip_name"`
	TripStatus string `dynamodbav:"trip_status"`
}

func newTripRecord(tripID, ownerID, name string) tripRecord {
	l := keys.TripLayout(tripID, ownerID)
	return tripRecord{
		PK:         l.PK,
		SK:         l.SK,
		GSI2:       l.GSI2,
		TripName:   name,
		TripStatus: TripStatusInProgress,
	}
}

func (r tripRecord) EntityKey() keys.Key { return keys.Key{PK: r.PK, SK: r.SK} }

type membershipRecord struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	GSI1 string `dynamodbav:"GSI1"`
}

func newMembershipRecord(userID, tripID string) membershipRecord {
	l := keys.MembershipLayout(userID, tripID)
	return membershipRecord{PK: l.PK, SK: l.SK, GSI1: l.GSI1}
}

func (r membershipRecord) EntityKey() keys.Key { return keys.Key{PK: r.PK, SK: r.SK} }

// TaskObject is the nested task payload stored under task_object.
type TaskObject struct {
	Name   string `dynamodbav:"task_name" json:"task_name"`
	Status string `dynamodbav:"task_status" json:"task_status"`
}

type taskRecord struct {
	PK   string     `dynamodbav:"PK"`
	SK   string     `dynamodbav:"SK"`
	GSI1 string     `dynamodbav:"GSI1,omitempty"`
	Task TaskObject `dynamodbav:"task_object"`
}

func (r taskRecord) EntityKey() keys.Key { return keys.Key{PK: r.PK, SK: r.SK} }

// ExpenseObject is the nested expense payload stored under expense_object.
type ExpenseObject struct {
	Name   string `dynamodbav:"expense_name" json:"expense_name"`
	Amount int64  `dynamodbav:"amount" json:"amount"`
}

type expenseRecord struct {
	PK      string        `dynamodbav:"PK"`
	SK      string        `dynamodbav:"SK"`
	GSI1    string        `dynamodbav:"GSI1,omitempty"`
	Expense ExpenseObject `dynamodbav:"expense_object"`
}

func (r expenseRecord) EntityKey() keys.Key { return keys.Key{PK: r.PK, SK: r.SK} }
