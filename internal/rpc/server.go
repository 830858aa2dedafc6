// Package rpc exposes the services as Connect unary procedures with a JSON
// codec on plain Go structs.
package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/expense-tracker/internal/auth"
	"github.com/mmynk/expense-tracker/internal/middleware"
	"github.com/mmynk/expense-tracker/internal/service"
)

// PathPrefix is shared by every procedure path.
const PathPrefix = "/expensetracker.v1."

// Procedure names.
const (
	RegisterProcedure       = PathPrefix + "AuthService/Register"
	LoginProcedure          = PathPrefix + "AuthService/Login"
	GetCurrentUserProcedure = PathPrefix + "AuthService/GetCurrentUser"

	CreateExpenseProcedure     = PathPrefix + "ExpenseService/CreateExpense"
	ListExpensesProcedure      = PathPrefix + "ExpenseService/ListExpenses"
	GetExpenseProcedure        = PathPrefix + "ExpenseService/GetExpense"
	UpdateExpenseProcedure     = PathPrefix + "ExpenseService/UpdateExpense"
	DeleteExpenseProcedure     = PathPrefix + "ExpenseService/DeleteExpense"
	GetMonthlySummaryProcedure = PathPrefix + "ExpenseService/GetMonthlySummary"

	CreateGroupProcedure  = PathPrefix + "GroupService/CreateGroup"
	ListGroupsProcedure   = PathPrefix + "GroupService/ListGroups"
	GetGroupProcedure     = PathPrefix + "GroupService/GetGroup"
	DeleteGroupProcedure  = PathPrefix + "GroupService/DeleteGroup"
	AddMemberProcedure    = PathPrefix + "GroupService/AddMember"
	RemoveMemberProcedure = PathPrefix + "GroupService/RemoveMember"

	CreateGroupExpenseProcedure = PathPrefix + "GroupExpenseService/CreateGroupExpense"
	ListGroupExpensesProcedure  = PathPrefix + "GroupExpenseService/ListGroupExpenses"
	ListSplitsProcedure         = PathPrefix + "GroupExpenseService/ListSplits"
	SettleSplitProcedure        = PathPrefix + "GroupExpenseService/SettleSplit"
	ListMyDebtsProcedure        = PathPrefix + "GroupExpenseService/ListMyDebts"
	ListMyReceivablesProcedure  = PathPrefix + "GroupExpenseService/ListMyReceivables"
	GetGroupBalancesProcedure   = PathPrefix + "GroupExpenseService/GetGroupBalances"
)

// Services bundles the application services served over RPC.
type Services struct {
	Auth          *service.AuthService
	Expenses      *service.ExpenseService
	Groups        *service.GroupService
	GroupExpenses *service.GroupExpenseService
}

// Register mounts every procedure on mux. Register and Login are public; all
// other procedures require a bearer token issued by jwtManager.
func Register(mux *http.ServeMux, svc Services, jwtManager *auth.JWTManager) {
	opts := []connect.HandlerOption{
		connect.WithCodec(Codec),
		// Auth runs first so the logger sees the user; errors are mapped
		// before the logger records the code.
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager, RegisterProcedure, LoginProcedure),
			middleware.LoggingInterceptor(),
			ErrorInterceptor(),
		),
	}

	a := &authHandler{svc: svc.Auth}
	mux.Handle(unary(RegisterProcedure, a.register, opts...))
	mux.Handle(unary(LoginProcedure, a.login, opts...))
	mux.Handle(unary(GetCurrentUserProcedure, a.currentUser, opts...))

	e := &expenseHandler{svc: svc.Expenses}
	mux.Handle(unary(CreateExpenseProcedure, e.create, opts...))
	mux.Handle(unary(ListExpensesProcedure, e.list, opts...))
	mux.Handle(unary(GetExpenseProcedure, e.get, opts...))
	mux.Handle(unary(UpdateExpenseProcedure, e.update, opts...))
	mux.Handle(unary(DeleteExpenseProcedure, e.delete, opts...))
	mux.Handle(unary(GetMonthlySummaryProcedure, e.monthlySummary, opts...))

	g := &groupHandler{svc: svc.Groups}
	mux.Handle(unary(CreateGroupProcedure, g.create, opts...))
	mux.Handle(unary(ListGroupsProcedure, g.list, opts...))
	mux.Handle(unary(GetGroupProcedure, g.get, opts...))
	mux.Handle(unary(DeleteGroupProcedure, g.delete, opts...))
	mux.Handle(unary(AddMemberProcedure, g.addMember, opts...))
	mux.Handle(unary(RemoveMemberProcedure, g.removeMember, opts...))

	ge := &groupExpenseHandler{svc: svc.GroupExpenses}
	mux.Handle(unary(CreateGroupExpenseProcedure, ge.create, opts...))
	mux.Handle(unary(ListGroupExpensesProcedure, ge.list, opts...))
	mux.Handle(unary(ListSplitsProcedure, ge.splits, opts...))
	mux.Handle(unary(SettleSplitProcedure, ge.settle, opts...))
	mux.Handle(unary(ListMyDebtsProcedure, ge.myDebts, opts...))
	mux.Handle(unary(ListMyReceivablesProcedure, ge.myReceivables, opts...))
	mux.Handle(unary(GetGroupBalancesProcedure, ge.balances, opts...))
}

// unary adapts a handler method taking the authenticated user id into a
// Connect handler mounted at procedure.
func unary[Req, Res any](
	procedure string,
	fn func(ctx context.Context, userID string, req *Req) (*Res, error),
	opts ...connect.HandlerOption,
) (string, http.Handler) {
	return procedure, connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, middleware.GetUserID(ctx), req.Msg)
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	)
}
