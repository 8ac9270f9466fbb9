package planner

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// Expense is an expense with its prefix-free id.
type Expense struct {
	ID     string `json:"expenseId"`
	Name   string `json:"expenseName"`
	Amount int64  `json:"amount"`
}

// CreatedExpense is returned by CreateExpense.
type CreatedExpense struct {
	ExpenseID string        `json:"expenseId"`
	TripID    string        `json:"tripId"`
	Expense   ExpenseObject `json:"expense_object"`
}

// ExpenseChanges holds the expense fields to update. Nil fields are left
// as is; a zero Amount is a real update.
type ExpenseChanges struct {
	Name   *string
	Amount *int64
}

func (c ExpenseChanges) changes() store.Changes {
	var ch store.Changes
	if c.Name != nil {
		ch = ch.Set(pathExpenseName, *c.Name)
	}
	if c.Amount != nil {
		ch = ch.Set(pathAmount, *c.Amount)
	}
	return ch
}

// ParseAmount accepts a decoded JSON value holding a whole number.
// Strings, fractions, booleans and null are rejected with a *ValidationError.
func ParseAmount(v any) (int64, error) {
	invalid := &ValidationError{Field: "amount", Reason: "must be an integer"}

	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, invalid
		}
		return integral(f, invalid)
	case float64:
		return integral(n, invalid)
	default:
		return 0, invalid
	}
}

func integral(f float64, invalid error) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, invalid
	}
	return int64(f), nil
}

func expenseFromItem(item store.Item) (Expense, error) {
	var r expenseRecord
	if err := item.Unmarshal(&r); err != nil {
		return Expense{}, err
	}
	id, _ := keys.KindExpense.Strip(r.PK)
	return Expense{ID: id, Name: r.Expense.Name, Amount: r.Expense.Amount}, nil
}

// ExpensesForTrip lists the trip's expenses. No expenses is an empty list.
func (s *Service) ExpensesForTrip(ctx context.Context, tripID string) ([]Expense, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return nil, err
	}

	items, err := s.tripChildren(ctx, tripID, keys.KindExpense, keys.AttrPK, attrExpenseObj)
	if err != nil {
		return nil, storeErr("getExpensesForTrip", err)
	}

	expenses := make([]Expense, 0, len(items))
	for _, item := range items {
		e, err := expenseFromItem(item)
		if err != nil {
			return nil, storeErr("getExpensesForTrip", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

// ExpenseDetails returns the expense's raw expense_object item(s).
func (s *Service) ExpenseDetails(ctx context.Context, expenseID string) ([]map[string]any, error) {
	if err := validateID("expenseId", keys.KindExpense, expenseID); err != nil {
		return nil, err
	}

	items, err := s.store.Query(ctx, keys.EntityQuery(keys.KindExpense, expenseID), attrExpenseObj)
	if err != nil {
		return nil, storeErr("getExpenseDetails", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return documents("getExpenseDetails", items)
}

// CreateExpense adds an expense to the trip.
func (s *Service) CreateExpense(ctx context.Context, tripID, name string, amount int64) (CreatedExpense, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return CreatedExpense{}, err
	}

	expenseID := s.newID()
	l := keys.ExpenseLayout(expenseID, tripID)
	rec := expenseRecord{
		PK:      l.PK,
		SK:      l.SK,
		GSI1:    l.GSI1,
		Expense: ExpenseObject{Name: name, Amount: amount},
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return CreatedExpense{}, storeErr("createExpenseForTrip", err)
	}

	return CreatedExpense{
		ExpenseID: expenseID,
		TripID:    tripID,
		Expense:   rec.Expense,
	}, nil
}

// UpdateExpense changes the given expense fields and returns the expense
// after the update. Without changes it returns the current expense.
func (s *Service) UpdateExpense(ctx context.Context, expenseID string, c ExpenseChanges) (Expense, error) {
	if err := validateID("expenseId", keys.KindExpense, expenseID); err != nil {
		return Expense{}, err
	}
	key := keys.EntityKey(keys.KindExpense, expenseID)

	var (
		item store.Item
		err  error
	)
	if changes := c.changes(); changes.Empty() {
		item, err = s.store.Get(ctx, key)
	} else {
		item, err = s.store.Update(ctx, key, changes)
	}
	if errors.Is(err, store.ErrNotFound) {
		return Expense{}, ErrNotFound
	}
	if err != nil {
		return Expense{}, storeErr("updateExpenseForTrip", err)
	}

	e, err := expenseFromItem(item)
	if err != nil {
		return Expense{}, storeErr("updateExpenseForTrip", err)
	}
	return e, nil
}

// DeleteExpense removes the expense. Deleting an absent expense succeeds.
func (s *Service) DeleteExpense(ctx context.Context, expenseID string) error {
	if err := validateID("expenseId", keys.KindExpense, expenseID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, keys.EntityKey(keys.KindExpense, expenseID)); err != nil {
		return storeErr("deleteExpenseForTrip", err)
	}
	return nil
}
