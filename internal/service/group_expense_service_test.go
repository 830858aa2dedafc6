package service

import (
	"context"
	"testing"

	"github.com/mmynk/expense-tracker/internal/errs"
)

func TestGroupExpenseFlow(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	outsider := env.user(t, "mallory")

	group, err := env.groups.Create(ctx, alice.ID, "Dinner")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := env.groups.AddMember(ctx, alice.ID, group.ID, "bob@example.com"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	rec, err := env.groupExpenses.Create(ctx, alice.ID, group.ID, 50, "pizza")
	if err != nil {
		t.Fatalf("Create group expense failed: %v", err)
	}
	if len(rec.Splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(rec.Splits))
	}

	_, err = env.groupExpenses.Create(ctx, outsider.ID, group.ID, 10, "crash")
	wantErr(t, err, errs.ErrForbidden)

	_, err = env.groupExpenses.ListByGroup(ctx, outsider.ID, group.ID)
	wantErr(t, err, errs.ErrForbidden)

	_, err = env.groupExpenses.Splits(ctx, outsider.ID, rec.Expense.ID)
	wantErr(t, err, errs.ErrForbidden)

	_, err = env.groupExpenses.Splits(ctx, alice.ID, "missing")
	wantErr(t, err, errs.ErrNotFound)

	_, err = env.groupExpenses.GroupBalances(ctx, outsider.ID, group.ID)
	wantErr(t, err, errs.ErrForbidden)

	views, err := env.groupExpenses.ListByGroup(ctx, bob.ID, group.ID)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(views) != 1 || views[0].PaidBy.Name != "alice" {
		t.Fatalf("unexpected expense views: %+v", views)
	}

	splits, err := env.groupExpenses.Splits(ctx, bob.ID, rec.Expense.ID)
	if err != nil {
		t.Fatalf("Splits failed: %v", err)
	}
	var bobSplit string
	for _, s := range splits {
		if s.ShareAmount != 25 {
			t.Errorf("share = %v, want 25", s.ShareAmount)
		}
		if s.User.ID == bob.ID {
			bobSplit = s.ID
			if s.IsSettled {
				t.Error("bob's split should start unsettled")
			}
		}
	}

	debts, err := env.groupExpenses.MyDebts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("MyDebts failed: %v", err)
	}
	if len(debts) != 1 || debts[0].Amount != 25 {
		t.Fatalf("unexpected debts: %+v", debts)
	}

	receivables, err := env.groupExpenses.MyReceivables(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MyReceivables failed: %v", err)
	}
	if len(receivables) != 1 || receivables[0].OwedBy.ID != bob.ID {
		t.Fatalf("unexpected receivables: %+v", receivables)
	}

	balances, err := env.groupExpenses.GroupBalances(ctx, bob.ID, group.ID)
	if err != nil {
		t.Fatalf("GroupBalances failed: %v", err)
	}
	if len(balances.Transfers) != 1 || balances.Transfers[0].Amount != 25 {
		t.Errorf("unexpected transfers: %+v", balances.Transfers)
	}

	_, err = env.groupExpenses.Settle(ctx, outsider.ID, bobSplit)
	wantErr(t, err, errs.ErrForbidden)

	settled, err := env.groupExpenses.Settle(ctx, bob.ID, bobSplit)
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if !settled.IsSettled {
		t.Error("expected split to be settled")
	}

	debts, err = env.groupExpenses.MyDebts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("MyDebts failed: %v", err)
	}
	if len(debts) != 0 {
		t.Errorf("expected no debts after settling, got %+v", debts)
	}
}
