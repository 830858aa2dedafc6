package rpc

import (
	"context"
	"time"

	"github.com/mmynk/expense-tracker/internal/service"
)

type authHandler struct {
	svc *service.AuthService
}

func (h *authHandler) register(ctx context.Context, _ string, req *RegisterRequest) (*AuthResponse, error) {
	res, err := h.svc.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: res.User, Token: res.Token}, nil
}

func (h *authHandler) login(ctx context.Context, _ string, req *LoginRequest) (*AuthResponse, error) {
	res, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: res.User, Token: res.Token}, nil
}

func (h *authHandler) currentUser(ctx context.Context, userID string, _ *Empty) (*UserResponse, error) {
	user, err := h.svc.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: *user}, nil
}

type expenseHandler struct {
	svc *service.ExpenseService
}

func (h *expenseHandler) create(ctx context.Context, userID string, req *CreateExpenseRequest) (*ExpenseResponse, error) {
	in, err := req.input()
	if err != nil {
		return nil, err
	}
	expense, err := h.svc.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: expense}, nil
}

func (h *expenseHandler) list(ctx context.Context, userID string, req *ListExpensesRequest) (*service.ExpenseList, error) {
	q, err := req.query()
	if err != nil {
		return nil, err
	}
	return h.svc.List(ctx, userID, q)
}

func (h *expenseHandler) get(ctx context.Context, userID string, req *ExpenseRequest) (*ExpenseResponse, error) {
	if err := requireID("id", req.ID); err != nil {
		return nil, err
	}
	expense, err := h.svc.Get(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: expense}, nil
}

func (h *expenseHandler) update(ctx context.Context, userID string, req *UpdateExpenseRequest) (*ExpenseResponse, error) {
	if err := requireID("id", req.ID); err != nil {
		return nil, err
	}
	u, err := req.update()
	if err != nil {
		return nil, err
	}
	expense, err := h.svc.Update(ctx, userID, req.ID, u)
	if err != nil {
		return nil, err
	}
	return &ExpenseResponse{Expense: expense}, nil
}

func (h *expenseHandler) delete(ctx context.Context, userID string, req *ExpenseRequest) (*Empty, error) {
	if err := requireID("id", req.ID); err != nil {
		return nil, err
	}
	return &Empty{}, h.svc.Delete(ctx, userID, req.ID)
}

func (h *expenseHandler) monthlySummary(ctx context.Context, userID string, req *MonthlySummaryRequest) (*MonthlySummaryResponse, error) {
	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	months, err := h.svc.MonthlySummary(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	return &MonthlySummaryResponse{Year: year, Months: months}, nil
}

type groupHandler struct {
	svc *service.GroupService
}

func (h *groupHandler) create(ctx context.Context, userID string, req *CreateGroupRequest) (*GroupResponse, error) {
	group, err := h.svc.Create(ctx, userID, req.Name)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: group}, nil
}

func (h *groupHandler) list(ctx context.Context, userID string, _ *Empty) (*ListGroupsResponse, error) {
	groups, err := h.svc.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListGroupsResponse{Groups: groups}, nil
}

func (h *groupHandler) get(ctx context.Context, userID string, req *GroupRequest) (*GroupResponse, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	group, err := h.svc.Get(ctx, userID, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: group}, nil
}

func (h *groupHandler) delete(ctx context.Context, userID string, req *GroupRequest) (*Empty, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	return &Empty{}, h.svc.Delete(ctx, userID, req.GroupID)
}

func (h *groupHandler) addMember(ctx context.Context, userID string, req *AddMemberRequest) (*GroupResponse, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	group, err := h.svc.AddMember(ctx, userID, req.GroupID, req.Email)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: group}, nil
}

func (h *groupHandler) removeMember(ctx context.Context, userID string, req *RemoveMemberRequest) (*GroupResponse, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	if err := requireID("userId", req.UserID); err != nil {
		return nil, err
	}
	group, err := h.svc.RemoveMember(ctx, userID, req.GroupID, req.UserID)
	if err != nil {
		return nil, err
	}
	return &GroupResponse{Group: group}, nil
}

type groupExpenseHandler struct {
	svc *service.GroupExpenseService
}

func (h *groupExpenseHandler) create(ctx context.Context, userID string, req *CreateGroupExpenseRequest) (*CreateGroupExpenseResponse, error) {
	rec, err := h.svc.Create(ctx, userID, req.GroupID, req.TotalAmount, req.Description)
	if err != nil {
		return nil, err
	}
	return &CreateGroupExpenseResponse{Expense: rec.Expense, Splits: rec.Splits}, nil
}

func (h *groupExpenseHandler) list(ctx context.Context, userID string, req *GroupRequest) (*ListGroupExpensesResponse, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	expenses, err := h.svc.ListByGroup(ctx, userID, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &ListGroupExpensesResponse{Expenses: expenses}, nil
}

func (h *groupExpenseHandler) splits(ctx context.Context, userID string, req *ListSplitsRequest) (*ListSplitsResponse, error) {
	if err := requireID("groupExpenseId", req.GroupExpenseID); err != nil {
		return nil, err
	}
	splits, err := h.svc.Splits(ctx, userID, req.GroupExpenseID)
	if err != nil {
		return nil, err
	}
	return &ListSplitsResponse{Splits: splits}, nil
}

func (h *groupExpenseHandler) settle(ctx context.Context, userID string, req *SettleSplitRequest) (*SplitResponse, error) {
	split, err := h.svc.Settle(ctx, userID, req.SplitID)
	if err != nil {
		return nil, err
	}
	return &SplitResponse{Split: split}, nil
}

func (h *groupExpenseHandler) myDebts(ctx context.Context, userID string, _ *Empty) (*ListMyDebtsResponse, error) {
	debts, err := h.svc.MyDebts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListMyDebtsResponse{Debts: debts}, nil
}

func (h *groupExpenseHandler) myReceivables(ctx context.Context, userID string, _ *Empty) (*ListMyReceivablesResponse, error) {
	receivables, err := h.svc.MyReceivables(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListMyReceivablesResponse{Receivables: receivables}, nil
}

func (h *groupExpenseHandler) balances(ctx context.Context, userID string, req *GroupRequest) (*GroupBalancesResponse, error) {
	if err := requireID("groupId", req.GroupID); err != nil {
		return nil, err
	}
	balances, err := h.svc.GroupBalances(ctx, userID, req.GroupID)
	if err != nil {
		return nil, err
	}
	return &GroupBalancesResponse{Balances: balances}, nil
}
