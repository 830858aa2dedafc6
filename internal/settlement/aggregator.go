package settlement

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expense-tracker/internal/calculator"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
)

// Aggregator answers who owes whom from the unsettled splits.
type Aggregator struct {
	repos *repository.Repositories
}

// NewAggregator returns an Aggregator reading from repos.
func NewAggregator(repos *repository.Repositories) *Aggregator {
	return &Aggregator{repos: repos}
}

// MyDebts lists the unsettled splits userID owes, with the payer each is owed
// to. Splits whose expense no longer exists are skipped, as are splits of
// expenses the user paid themself.
func (a *Aggregator) MyDebts(ctx context.Context, userID string) ([]models.Debt, error) {
	splits, err := a.repos.Splits.FindUnsettledByDebtor(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortSplits(splits)

	expenses := make(map[string]*models.GroupExpense)
	var payers []string
	for _, s := range splits {
		if _, seen := expenses[s.GroupExpenseID]; seen {
			continue
		}
		e, err := a.repos.GroupExpenses.FindByID(ctx, s.GroupExpenseID)
		if err != nil {
			return nil, err
		}
		expenses[s.GroupExpenseID] = e
		if e != nil {
			payers = append(payers, e.PaidBy)
		}
	}

	refs, err := a.repos.Users.Refs(ctx, payers...)
	if err != nil {
		return nil, err
	}

	debts := []models.Debt{}
	for _, s := range splits {
		e := expenses[s.GroupExpenseID]
		if e == nil || e.PaidBy == userID {
			continue
		}
		debts = append(debts, models.Debt{
			SplitID:     s.ID,
			Amount:      s.ShareAmount,
			Description: e.Description,
			Date:        e.Date,
			OwedTo:      repository.Ref(refs, e.PaidBy),
		})
	}
	return debts, nil
}

// MyReceivables lists the unsettled splits other members owe userID on
// expenses userID paid.
func (a *Aggregator) MyReceivables(ctx context.Context, userID string) ([]models.Receivable, error) {
	paid, err := a.repos.GroupExpenses.FindByPayer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(paid) == 0 {
		return []models.Receivable{}, nil
	}

	expenses := make(map[string]*models.GroupExpense, len(paid))
	ids := make([]string, len(paid))
	for i := range paid {
		expenses[paid[i].ID] = &paid[i]
		ids[i] = paid[i].ID
	}

	splits, err := a.repos.Splits.FindUnsettledByExpenses(ctx, ids...)
	if err != nil {
		return nil, err
	}
	splits = slices.DeleteFunc(splits, func(s models.Split) bool { return s.UserID == userID })
	sortSplits(splits)

	debtors := make([]string, len(splits))
	for i, s := range splits {
		debtors[i] = s.UserID
	}
	refs, err := a.repos.Users.Refs(ctx, debtors...)
	if err != nil {
		return nil, err
	}

	receivables := make([]models.Receivable, len(splits))
	for i, s := range splits {
		e := expenses[s.GroupExpenseID]
		receivables[i] = models.Receivable{
			SplitID:     s.ID,
			Amount:      s.ShareAmount,
			Description: e.Description,
			Date:        e.Date,
			OwedBy:      repository.Ref(refs, s.UserID),
		}
	}
	return receivables, nil
}

// GroupBalances computes each member's net position over the group's
// unsettled splits and a short list of payments that would clear them.
func (a *Aggregator) GroupBalances(ctx context.Context, groupID string) (*models.GroupBalances, error) {
	group, err := a.repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, errs.NotFound("group %s", groupID)
	}

	expenses, err := a.repos.GroupExpenses.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	payers := make(map[string]string, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		payers[e.ID] = e.PaidBy
		ids[i] = e.ID
	}

	var obligations []calculator.Obligation
	if len(ids) > 0 {
		splits, err := a.repos.Splits.FindUnsettledByExpenses(ctx, ids...)
		if err != nil {
			return nil, err
		}
		for _, s := range splits {
			obligations = append(obligations, calculator.Obligation{
				Debtor:   s.UserID,
				Creditor: payers[s.GroupExpenseID],
				Amount:   decimal.NewFromFloat(s.ShareAmount),
			})
		}
	}

	balances := calculator.NetBalances(group.Members, obligations)
	edges := calculator.SimplifyDebts(balances)

	members := make([]string, len(balances))
	for i, b := range balances {
		members[i] = b.Member
	}
	refs, err := a.repos.Users.Refs(ctx, members...)
	if err != nil {
		return nil, err
	}

	out := &models.GroupBalances{
		GroupID:   groupID,
		Balances:  make([]models.MemberBalance, len(balances)),
		Transfers: make([]models.Transfer, len(edges)),
	}
	for i, b := range balances {
		out.Balances[i] = models.MemberBalance{
			User:    repository.Ref(refs, b.Member),
			Balance: b.Net.InexactFloat64(),
		}
	}
	for i, edge := range edges {
		out.Transfers[i] = models.Transfer{
			From:   repository.Ref(refs, edge.From),
			To:     repository.Ref(refs, edge.To),
			Amount: edge.Amount.InexactFloat64(),
		}
	}
	return out, nil
}

// sortSplits orders splits by creation time, then id.
func sortSplits(splits []models.Split) {
	slices.SortStableFunc(splits, func(a, b models.Split) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
