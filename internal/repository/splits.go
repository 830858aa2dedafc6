package repository

import (
	"context"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/models"
)

// SplitRepository stores the per-member shares of group expenses.
type SplitRepository struct {
	q docstore.Querier
}

// CreateMany stores splits in order. Run it inside InTx together with the
// parent expense so a failure leaves neither behind.
func (r *SplitRepository) CreateMany(ctx context.Context, splits []models.Split) ([]models.Split, error) {
	created := make([]models.Split, 0, len(splits))
	for i := range splits {
		doc, err := encode(models.CollectionSplits, &splits[i], nil)
		if err != nil {
			return nil, err
		}
		s, err := insert[models.Split](ctx, r.q, models.CollectionSplits, doc)
		if err != nil {
			return nil, err
		}
		created = append(created, *s)
	}
	return created, nil
}

// FindByID returns the split or nil if absent.
func (r *SplitRepository) FindByID(ctx context.Context, id string) (*models.Split, error) {
	return docstore.FindAs[models.Split](ctx, r.q, models.CollectionSplits, id)
}

// FindByExpense returns the splits of one group expense in store order.
func (r *SplitRepository) FindByExpense(ctx context.Context, expenseID string) ([]models.Split, error) {
	return docstore.FilterAs(ctx, r.q, models.CollectionSplits, func(s models.Split) bool {
		return s.GroupExpenseID == expenseID
	})
}

// FindUnsettledByDebtor returns the unsettled splits owed by userID.
func (r *SplitRepository) FindUnsettledByDebtor(ctx context.Context, userID string) ([]models.Split, error) {
	return docstore.FilterAs(ctx, r.q, models.CollectionSplits, func(s models.Split) bool {
		return s.UserID == userID && !s.IsSettled
	})
}

// FindUnsettledByExpenses returns the unsettled splits of the given expenses.
func (r *SplitRepository) FindUnsettledByExpenses(ctx context.Context, expenseIDs ...string) ([]models.Split, error) {
	want := make(map[string]struct{}, len(expenseIDs))
	for _, id := range expenseIDs {
		want[id] = struct{}{}
	}
	return docstore.FilterAs(ctx, r.q, models.CollectionSplits, func(s models.Split) bool {
		_, ok := want[s.GroupExpenseID]
		return ok && !s.IsSettled
	})
}

// MarkSettled sets isSettled on the split. It returns nil when the id is absent.
func (r *SplitRepository) MarkSettled(ctx context.Context, id string) (*models.Split, error) {
	p := newPatch(models.CollectionSplits).set("isSettled", true)
	return apply[models.Split](ctx, r.q, p, id)
}

// DeleteByExpense removes every split of a group expense and returns how many
// were removed.
func (r *SplitRepository) DeleteByExpense(ctx context.Context, expenseID string) (int, error) {
	splits, err := r.FindByExpense(ctx, expenseID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, s := range splits {
		ok, err := r.q.Delete(ctx, models.CollectionSplits, s.ID)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Views resolves the debtor of each split, keeping the input order.
func (r *SplitRepository) Views(ctx context.Context, splits []models.Split) ([]models.SplitView, error) {
	ids := make([]string, len(splits))
	for i, s := range splits {
		ids[i] = s.UserID
	}
	refs, err := (&UserRepository{q: r.q}).Refs(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]models.SplitView, len(splits))
	for i, s := range splits {
		views[i] = models.SplitView{
			ID:             s.ID,
			GroupExpenseID: s.GroupExpenseID,
			User:           Ref(refs, s.UserID),
			ShareAmount:    s.ShareAmount,
			IsSettled:      s.IsSettled,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		}
	}
	return views, nil
}
