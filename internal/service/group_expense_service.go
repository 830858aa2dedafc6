package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
	"github.com/mmynk/expense-tracker/internal/settlement"
)

// GroupExpenseService exposes group expenses, their splits and the
// settlement views to members.
type GroupExpenseService struct {
	repos      *repository.Repositories
	engine     *settlement.Engine
	aggregator *settlement.Aggregator
	logger     *slog.Logger
}

// NewGroupExpenseService creates a new GroupExpenseService.
func NewGroupExpenseService(repos *repository.Repositories, engine *settlement.Engine, aggregator *settlement.Aggregator, logger *slog.Logger) *GroupExpenseService {
	return &GroupExpenseService{repos: repos, engine: engine, aggregator: aggregator, logger: logger}
}

// Create records an expense userID paid for the group and splits it equally.
func (s *GroupExpenseService) Create(ctx context.Context, userID, groupID string, amount float64, description string) (*settlement.Recorded, error) {
	s.logger.Info("CreateGroupExpense request received",
		"user_id", userID,
		"group_id", groupID,
		"amount", amount,
	)

	rec, err := s.engine.RecordGroupExpense(ctx, groupID, userID, amount, description)
	if err != nil {
		s.logger.Warn("CreateGroupExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return rec, nil
}

// ListByGroup returns the group's expenses, newest first, with payers resolved.
func (s *GroupExpenseService) ListByGroup(ctx context.Context, userID, groupID string) ([]models.GroupExpenseView, error) {
	if _, err := memberGroup(ctx, s.repos, userID, groupID); err != nil {
		return nil, err
	}
	expenses, err := s.repos.GroupExpenses.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ListGroupExpenses successful", "group_id", groupID, "count", len(expenses))
	return s.repos.GroupExpenses.Views(ctx, expenses)
}

// Splits returns the splits of a group expense with debtors resolved. Only
// members of the expense's group may read them.
func (s *GroupExpenseService) Splits(ctx context.Context, userID, expenseID string) ([]models.SplitView, error) {
	expense, err := s.repos.GroupExpenses.FindByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, errs.NotFound("group expense %s", expenseID)
	}
	if _, err := memberGroup(ctx, s.repos, userID, expense.GroupID); err != nil {
		return nil, err
	}

	splits, err := s.repos.Splits.FindByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	return s.repos.Splits.Views(ctx, splits)
}

// Settle marks a split as paid on behalf of userID.
func (s *GroupExpenseService) Settle(ctx context.Context, userID, splitID string) (*models.Split, error) {
	s.logger.Info("SettleSplit request received", "user_id", userID, "split_id", splitID)

	split, err := s.engine.SettleSplit(ctx, userID, splitID)
	if err != nil {
		s.logger.Warn("SettleSplit failed", "split_id", splitID, "error", err)
		return nil, err
	}
	return split, nil
}

// MyDebts lists what userID owes.
func (s *GroupExpenseService) MyDebts(ctx context.Context, userID string) ([]models.Debt, error) {
	return s.aggregator.MyDebts(ctx, userID)
}

// MyReceivables lists what others owe userID.
func (s *GroupExpenseService) MyReceivables(ctx context.Context, userID string) ([]models.Receivable, error) {
	return s.aggregator.MyReceivables(ctx, userID)
}

// GroupBalances returns the group's net balances. Only members may read them.
func (s *GroupExpenseService) GroupBalances(ctx context.Context, userID, groupID string) (*models.GroupBalances, error) {
	if _, err := memberGroup(ctx, s.repos, userID, groupID); err != nil {
		return nil, err
	}
	return s.aggregator.GroupBalances(ctx, groupID)
}
