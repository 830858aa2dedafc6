package repository

import (
	"context"
	"slices"
	"time"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/models"
)

// GroupExpenseRepository stores expenses paid on behalf of a group.
type GroupExpenseRepository struct {
	q docstore.Querier
}

// Create stores e and returns the stored record.
func (r *GroupExpenseRepository) Create(ctx context.Context, e *models.GroupExpense) (*models.GroupExpense, error) {
	doc, err := encode(models.CollectionGroupExpenses, e, map[string]time.Time{"date": e.Date})
	if err != nil {
		return nil, err
	}
	return insert[models.GroupExpense](ctx, r.q, models.CollectionGroupExpenses, doc)
}

// FindByID returns the group expense or nil if absent.
func (r *GroupExpenseRepository) FindByID(ctx context.Context, id string) (*models.GroupExpense, error) {
	return docstore.FindAs[models.GroupExpense](ctx, r.q, models.CollectionGroupExpenses, id)
}

// FindByGroup returns the group's expenses, most recent date first.
func (r *GroupExpenseRepository) FindByGroup(ctx context.Context, groupID string) ([]models.GroupExpense, error) {
	expenses, err := docstore.FilterAs(ctx, r.q, models.CollectionGroupExpenses, func(e models.GroupExpense) bool {
		return e.GroupID == groupID
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(expenses, func(a, b models.GroupExpense) int {
		return newerFirst(a.Date, b.Date)
	})
	return expenses, nil
}

// FindByPayer returns the expenses paid by userID in store order.
func (r *GroupExpenseRepository) FindByPayer(ctx context.Context, userID string) ([]models.GroupExpense, error) {
	return docstore.FilterAs(ctx, r.q, models.CollectionGroupExpenses, func(e models.GroupExpense) bool {
		return e.PaidBy == userID
	})
}

// Delete removes the group expense and reports whether it existed.
func (r *GroupExpenseRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.q.Delete(ctx, models.CollectionGroupExpenses, id)
}

// Views resolves the payer of each expense, keeping the input order.
func (r *GroupExpenseRepository) Views(ctx context.Context, expenses []models.GroupExpense) ([]models.GroupExpenseView, error) {
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.PaidBy
	}
	refs, err := (&UserRepository{q: r.q}).Refs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]models.GroupExpenseView, len(expenses))
	for i, e := range expenses {
		views[i] = models.GroupExpenseView{
			ID:          e.ID,
			GroupID:     e.GroupID,
			PaidBy:      Ref(refs, e.PaidBy),
			TotalAmount: e.TotalAmount,
			Description: e.Description,
			Date:        e.Date,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
		}
	}
	return views, nil
}
