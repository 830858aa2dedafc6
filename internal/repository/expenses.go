package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/models"
)

// ExpenseRepository stores personal expenses.
type ExpenseRepository struct {
	q docstore.Querier
}

// ExpenseUpdate lists the fields to change; nil fields are left untouched.
type ExpenseUpdate struct {
	Title         *string
	Amount        *float64
	Category      *string
	Date          *time.Time
	PaymentMethod *string
	Notes         *string
}

// Create stores e and returns the stored record.
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	doc, err := encode(models.CollectionExpenses, e, map[string]time.Time{"date": e.Date})
	if err != nil {
		return nil, err
	}
	return insert[models.Expense](ctx, r.q, models.CollectionExpenses, doc)
}

// FindByID returns the expense or nil if absent.
func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	return docstore.FindAs[models.Expense](ctx, r.q, models.CollectionExpenses, id)
}

// FindByUser returns one page of the user's expenses matching filter, and the
// number of matching expenses across all pages.
func (r *ExpenseRepository) FindByUser(ctx context.Context, userID string, filter models.ExpenseFilter, page models.PageRequest) ([]models.Expense, int, error) {
	search := strings.ToLower(filter.Search)
	expenses, err := docstore.FilterAs(ctx, r.q, models.CollectionExpenses, func(e models.Expense) bool {
		if e.UserID != userID {
			return false
		}
		if filter.Category != "" && e.Category != filter.Category {
			return false
		}
		if filter.StartDate != nil && e.Date.Before(*filter.StartDate) {
			return false
		}
		if filter.EndDate != nil && e.Date.After(*filter.EndDate) {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Title), search) {
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}

	sortExpenses(expenses, page.SortBy, page.Ascending)

	total := len(expenses)
	if page.Limit <= 0 {
		return expenses, total, nil
	}
	start := (max(page.Page, 1) - 1) * page.Limit
	if start >= total {
		return []models.Expense{}, total, nil
	}
	end := min(start+page.Limit, total)
	return expenses[start:end], total, nil
}

func sortExpenses(expenses []models.Expense, sortBy string, ascending bool) {
	var compare func(a, b models.Expense) int
	switch sortBy {
	case models.SortByAmount:
		compare = func(a, b models.Expense) int { return cmp.Compare(a.Amount, b.Amount) }
	case models.SortByTitle:
		compare = func(a, b models.Expense) int { return strings.Compare(a.Title, b.Title) }
	case models.SortByCreatedAt:
		compare = func(a, b models.Expense) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		compare = func(a, b models.Expense) int { return a.Date.Compare(b.Date) }
	}
	if !ascending {
		asc := compare
		compare = func(a, b models.Expense) int { return asc(b, a) }
	}
	slices.SortStableFunc(expenses, compare)
}

// Update applies the non-nil fields of u. It returns nil when the id is absent.
func (r *ExpenseRepository) Update(ctx context.Context, id string, u ExpenseUpdate) (*models.Expense, error) {
	p := newPatch(models.CollectionExpenses)
	if u.Title != nil {
		p.set("title", *u.Title)
	}
	if u.Amount != nil {
		p.set("amount", *u.Amount)
	}
	if u.Category != nil {
		p.set("category", *u.Category)
	}
	if u.Date != nil {
		p.set("date", *u.Date)
	}
	if u.PaymentMethod != nil {
		p.set("paymentMethod", *u.PaymentMethod)
	}
	if u.Notes != nil {
		p.set("notes", *u.Notes)
	}
	return apply[models.Expense](ctx, r.q, p, id)
}

// Delete removes the expense and reports whether it existed.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.q.Delete(ctx, models.CollectionExpenses, id)
}

// MonthlySummary totals the user's expenses for each month of year (UTC).
// The result always has twelve entries, January first.
func (r *ExpenseRepository) MonthlySummary(ctx context.Context, userID string, year int) ([]models.MonthlyTotal, error) {
	expenses, err := docstore.FilterAs(ctx, r.q, models.CollectionExpenses, func(e models.Expense) bool {
		return e.UserID == userID && e.Date.UTC().Year() == year
	})
	if err != nil {
		return nil, err
	}

	totals := make([]decimal.Decimal, 12)
	counts := make([]int, 12)
	for _, e := range expenses {
		m := int(e.Date.UTC().Month()) - 1
		totals[m] = totals[m].Add(decimal.NewFromFloat(e.Amount))
		counts[m]++
	}

	summary := make([]models.MonthlyTotal, 12)
	for i := range summary {
		summary[i] = models.MonthlyTotal{
			Month:       i + 1,
			TotalAmount: totals[i].InexactFloat64(),
			Count:       counts[i],
		}
	}
	return summary, nil
}
