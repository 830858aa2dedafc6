package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/storage/jsonfile"
)

// tickingClock advances one second on every call so records created in a
// test get distinct, increasing timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func setup(t *testing.T) (*Repositories, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	backend, err := jsonfile.New(path)
	require.NoError(t, err)

	clock := &tickingClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store, err := docstore.Open(context.Background(), backend, docstore.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store), path
}

func mustUser(t *testing.T, r *Repositories, email, name string) *models.User {
	t.Helper()
	u, err := r.Users.Create(context.Background(), email, "hash", name)
	require.NoError(t, err)
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	alice := mustUser(t, r, "alice@example.com", "Alice")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, "hash", alice.Password)
	assert.False(t, alice.CreatedAt.IsZero())

	t.Run("find by email", func(t *testing.T) {
		got, err := r.Users.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, alice.ID, got.ID)

		missing, err := r.Users.FindByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("email exists", func(t *testing.T) {
		exists, err := r.Users.EmailExists(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		_, err := r.Users.Create(ctx, "alice@example.com", "hash", "Other Alice")
		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("refs skip unknown ids", func(t *testing.T) {
		refs, err := r.Users.Refs(ctx, alice.ID, "ghost")
		require.NoError(t, err)
		assert.Equal(t, models.UserRef{ID: alice.ID, Name: "Alice", Email: "alice@example.com"}, refs[alice.ID])
		assert.Equal(t, models.UserRef{ID: "ghost"}, Ref(refs, "ghost"))
	})
}

func TestExpenseRepositoryPersistedLayout(t *testing.T) {
	ctx := context.Background()
	r, path := setup(t)

	date := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	_, err := r.Expenses.Create(ctx, &models.Expense{
		UserID:        "u1",
		Title:         "Lunch",
		Amount:        12.5,
		Category:      "Food",
		Date:          date,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)

	keys := []string{`"_id"`, `"userId"`, `"title"`, `"amount"`, `"category"`, `"date"`, `"paymentMethod"`, `"createdAt"`, `"updatedAt"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(body, k)
		require.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
	assert.Contains(t, body, `"date": "2024-03-05T10:30:00.000Z"`)
	assert.NotContains(t, body, `"notes"`)
}

func TestExpenseRepositoryFindByUser(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	seed := []models.Expense{
		{UserID: "u1", Title: "Groceries", Amount: 40, Category: "Food", Date: day(3)},
		{UserID: "u1", Title: "Train ticket", Amount: 15, Category: "Travel", Date: day(1)},
		{UserID: "u1", Title: "Dinner out", Amount: 60, Category: "Food", Date: day(5)},
		{UserID: "u2", Title: "Groceries", Amount: 25, Category: "Food", Date: day(2)},
		{UserID: "u1", Title: "Coffee", Amount: 4, Category: "Food", Date: day(9)},
	}
	for i := range seed {
		seed[i].PaymentMethod = models.DefaultPaymentMethod
		_, err := r.Expenses.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	titles := func(expenses []models.Expense) []string {
		out := make([]string, len(expenses))
		for i, e := range expenses {
			out[i] = e.Title
		}
		return out
	}

	tests := []struct {
		name      string
		filter    models.ExpenseFilter
		page      models.PageRequest
		wantTotal int
		want      []string
	}{
		{
			name:      "default sort is newest date first",
			page:      models.PageRequest{Page: 1, Limit: 10},
			wantTotal: 4,
			want:      []string{"Coffee", "Dinner out", "Groceries", "Train ticket"},
		},
		{
			name:      "category filter",
			filter:    models.ExpenseFilter{Category: "Food"},
			page:      models.PageRequest{Page: 1, Limit: 10, SortBy: models.SortByAmount, Ascending: true},
			wantTotal: 3,
			want:      []string{"Coffee", "Groceries", "Dinner out"},
		},
		{
			name:      "date range is inclusive",
			filter:    models.ExpenseFilter{StartDate: ptr(day(1)), EndDate: ptr(day(5))},
			page:      models.PageRequest{Page: 1, Limit: 10, SortBy: models.SortByDate, Ascending: true},
			wantTotal: 3,
			want:      []string{"Train ticket", "Groceries", "Dinner out"},
		},
		{
			name:      "search ignores case",
			filter:    models.ExpenseFilter{Search: "DINNER"},
			page:      models.PageRequest{Page: 1, Limit: 10},
			wantTotal: 1,
			want:      []string{"Dinner out"},
		},
		{
			name:      "second page",
			page:      models.PageRequest{Page: 2, Limit: 3, SortBy: models.SortByTitle, Ascending: true},
			wantTotal: 4,
			want:      []string{"Train ticket"},
		},
		{
			name:      "page past the end is empty",
			page:      models.PageRequest{Page: 5, Limit: 3},
			wantTotal: 4,
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := r.Expenses.FindByUser(ctx, "u1", tt.filter, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestExpenseRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	created, err := r.Expenses.Create(ctx, &models.Expense{
		UserID: "u1", Title: "Taxi", Amount: 20, Category: "Travel",
		Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), PaymentMethod: "cash",
	})
	require.NoError(t, err)

	updated, err := r.Expenses.Update(ctx, created.ID, ExpenseUpdate{Amount: ptr(22.0), Notes: ptr("airport")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 22.0, updated.Amount)
	assert.Equal(t, "airport", updated.Notes)
	assert.Equal(t, "Taxi", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	missing, err := r.Expenses.Update(ctx, "nope", ExpenseUpdate{Title: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := r.Expenses.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Expenses.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpenseRepositoryMonthlySummary(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	for _, e := range []models.Expense{
		{UserID: "u1", Title: "a", Amount: 0.1, Category: "x", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		{UserID: "u1", Title: "b", Amount: 0.2, Category: "x", Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{UserID: "u1", Title: "c", Amount: 50, Category: "x", Date: time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)},
		{UserID: "u1", Title: "d", Amount: 99, Category: "x", Date: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{UserID: "u2", Title: "e", Amount: 7, Category: "x", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := r.Expenses.Create(ctx, &e)
		require.NoError(t, err)
	}

	summary, err := r.Expenses.MonthlySummary(ctx, "u1", 2024)
	require.NoError(t, err)
	require.Len(t, summary, 12)

	assert.Equal(t, models.MonthlyTotal{Month: 1, TotalAmount: 0.3, Count: 2}, summary[0])
	assert.Equal(t, models.MonthlyTotal{Month: 6, TotalAmount: 0, Count: 0}, summary[5])
	assert.Equal(t, models.MonthlyTotal{Month: 12, TotalAmount: 50, Count: 1}, summary[11])
}

func TestGroupRepositoryMembership(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	alice := mustUser(t, r, "alice@example.com", "Alice")
	bob := mustUser(t, r, "bob@example.com", "Bob")

	g, err := r.Groups.Create(ctx, "Trip", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, g.Members)
	assert.Equal(t, alice.ID, g.CreatedBy)

	g, err = r.Groups.AddMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, g.Members)

	// Adding twice keeps the set free of duplicates.
	g, err = r.Groups.AddMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, g.Members)

	member, err := r.Groups.IsMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, member)

	creator, err := r.Groups.IsCreator(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, creator)

	view, err := r.Groups.View(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRef{alice.Ref(), bob.Ref()}, view.Members)

	g, err = r.Groups.RemoveMember(ctx, g.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, g.Members)

	absent, err := r.Groups.AddMember(ctx, "nope", bob.ID)
	require.NoError(t, err)
	assert.Nil(t, absent)

	member, err = r.Groups.IsMember(ctx, "nope", alice.ID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestGroupRepositoryFindByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	first, err := r.Groups.Create(ctx, "First", "u1")
	require.NoError(t, err)
	_, err = r.Groups.Create(ctx, "Other", "u2")
	require.NoError(t, err)
	second, err := r.Groups.Create(ctx, "Second", "u1")
	require.NoError(t, err)

	groups, err := r.Groups.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, second.ID, groups[0].ID)
	assert.Equal(t, first.ID, groups[1].ID)
}

func TestGroupExpenseAndSplitRepositories(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	alice := mustUser(t, r, "alice@example.com", "Alice")

	older, err := r.GroupExpenses.Create(ctx, &models.GroupExpense{
		GroupID: "g1", PaidBy: alice.ID, TotalAmount: 10, Description: "Taxi",
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	newer, err := r.GroupExpenses.Create(ctx, &models.GroupExpense{
		GroupID: "g1", PaidBy: "ghost", TotalAmount: 20, Description: "Hotel",
		Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	list, err := r.GroupExpenses.FindByGroup(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	views, err := r.GroupExpenses.Views(ctx, list)
	require.NoError(t, err)
	assert.Equal(t, models.UserRef{ID: "ghost"}, views[0].PaidBy)
	assert.Equal(t, alice.Ref(), views[1].PaidBy)

	paid, err := r.GroupExpenses.FindByPayer(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, older.ID, paid[0].ID)

	splits, err := r.Splits.CreateMany(ctx, []models.Split{
		{GroupExpenseID: older.ID, UserID: alice.ID, ShareAmount: 5, IsSettled: true},
		{GroupExpenseID: older.ID, UserID: "bob", ShareAmount: 5},
	})
	require.NoError(t, err)
	require.Len(t, splits, 2)

	unsettled, err := r.Splits.FindUnsettledByExpenses(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, unsettled, 1)
	assert.Equal(t, "bob", unsettled[0].UserID)

	owed, err := r.Splits.FindUnsettledByDebtor(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, owed, 1)

	settled, err := r.Splits.MarkSettled(ctx, splits[1].ID)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.True(t, settled.IsSettled)

	splitViews, err := r.Splits.Views(ctx, splits)
	require.NoError(t, err)
	assert.Equal(t, alice.Ref(), splitViews[0].User)

	removed, err := r.Splits.DeleteByExpense(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	r, _ := setup(t)

	boom := errors.New("boom")
	err := r.InTx(ctx, func(tx *Repositories) error {
		if _, err := tx.Groups.Create(ctx, "Trip", "u1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	groups, err := r.Groups.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
