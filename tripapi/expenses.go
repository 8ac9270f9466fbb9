package tripapi

import (
	"context"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/jacentio/tripdb/planner"
)

// Messages returned by the expense operations.
const (
	MsgExpenseNotFound     = "Expense not found"
	MsgExpenseDeleted      = "Expense deleted successfully"
	msgCreateExpenseFailed = "Error creating expense"
	msgUpdateExpenseFailed = "Error updating expense"
	msgDeleteExpenseFailed = "Error deleting expense"
)

// GetExpensesForTrip lists the trip's expenses.
func (a *API) GetExpensesForTrip(ctx context.Context, tripID string) Response {
	expenses, err := a.svc.ExpensesForTrip(ctx, tripID)
	if err != nil {
		return a.fail(failure{op: "getExpensesForTrip", internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, expenses)
}

// GetExpenseDetails returns the expense's stored expense_object.
func (a *API) GetExpenseDetails(ctx context.Context, expenseID string) Response {
	items, err := a.svc.ExpenseDetails(ctx, expenseID)
	if err != nil {
		return a.fail(failure{op: "getExpenseDetails", notFound: MsgExpenseNotFound, internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, items)
}

// CreateExpenseForTrip adds an expense to the trip. amount is the decoded
// JSON value and must hold a whole number.
func (a *API) CreateExpenseForTrip(ctx context.Context, tripID, expenseName string, amount any) Response {
	f := failure{op: "createExpenseForTrip", internal: msgCreateExpenseFailed}

	n, err := planner.ParseAmount(amount)
	if err != nil {
		return a.fail(f, err)
	}
	created, err := a.svc.CreateExpense(ctx, tripID, expenseName, n)
	if err != nil {
		return a.fail(f, err)
	}
	return jsonResponse(http.StatusCreated, created)
}

// UpdateExpenseForTrip updates the supplied expense fields. A supplied
// amount of 0 is applied.
func (a *API) UpdateExpenseForTrip(ctx context.Context, expenseID string, expenseName nullable.Nullable[string], amount nullable.Nullable[any]) Response {
	f := failure{op: "updateExpenseForTrip", notFound: MsgExpenseNotFound, internal: msgUpdateExpenseFailed}

	changes := planner.ExpenseChanges{Name: value(expenseName)}
	if v := value(amount); v != nil {
		n, err := planner.ParseAmount(*v)
		if err != nil {
			return a.fail(f, err)
		}
		changes.Amount = &n
	}

	expense, err := a.svc.UpdateExpense(ctx, expenseID, changes)
	if err != nil {
		return a.fail(f, err)
	}
	return jsonResponse(http.StatusOK, expense)
}

// DeleteExpenseForTrip removes the expense.
func (a *API) DeleteExpenseForTrip(ctx context.Context, expenseID string) Response {
	if err := a.svc.DeleteExpense(ctx, expenseID); err != nil {
		return a.fail(failure{op: "deleteExpenseForTrip", internal: msgDeleteExpenseFailed}, err)
	}
	return jsonResponse(http.StatusOK, message{Message: MsgExpenseDeleted})
}
