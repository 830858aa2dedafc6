// Package settlement records group expenses as per-member splits, settles
// them, and aggregates what members owe each other.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expense-tracker/internal/calculator"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
)

// Engine creates group expenses with their splits and settles splits.
type Engine struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewEngine returns an Engine working on repos.
func NewEngine(repos *repository.Repositories) *Engine {
	return &Engine{repos: repos, now: time.Now}
}

// Recorded is a group expense together with the splits created for it.
type Recorded struct {
	Expense *models.GroupExpense
	Splits  []models.Split
}

// RecordGroupExpense records an expense paid by payerID for the whole group
// and splits it equally among the current members.
//
// The expense and its splits are committed in one transaction. The payer's
// own split is created settled. A group without members gets the expense
// and no splits.
func (e *Engine) RecordGroupExpense(ctx context.Context, groupID, payerID string, amount float64, description string) (*Recorded, error) {
	description = strings.TrimSpace(description)
	switch {
	case groupID == "":
		return nil, errs.Validation("group id is required")
	case payerID == "":
		return nil, errs.Validation("payer id is required")
	case !(amount > 0):
		return nil, errs.Validation("amount must be positive")
	case description == "":
		return nil, errs.Validation("description is required")
	}

	var out Recorded
	err := e.repos.InTx(ctx, func(tx *repository.Repositories) error {
		group, err := tx.Groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return errs.NotFound("group %s", groupID)
		}
		if !group.IsMember(payerID) {
			return errs.Forbidden("user %s is not a member of group %s", payerID, groupID)
		}

		expense, err := tx.GroupExpenses.Create(ctx, &models.GroupExpense{
			GroupID:     groupID,
			PaidBy:      payerID,
			TotalAmount: amount,
			Description: description,
			Date:        e.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("create group expense: %w", err)
		}
		out.Expense = expense

		if len(group.Members) == 0 {
			return nil
		}

		shares, err := calculator.EqualShares(decimal.NewFromFloat(amount), group.Members)
		if err != nil {
			return errs.Validation("%v", err)
		}

		splits := make([]models.Split, len(shares))
		for i, share := range shares {
			splits[i] = models.Split{
				GroupExpenseID: expense.ID,
				UserID:         share.Participant,
				ShareAmount:    share.Amount.InexactFloat64(),
				IsSettled:      share.Participant == payerID,
			}
		}
		out.Splits, err = tx.Splits.CreateMany(ctx, splits)
		if err != nil {
			return fmt.Errorf("create splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group expense recorded",
		"expense_id", out.Expense.ID,
		"group_id", groupID,
		"paid_by", payerID,
		"amount", amount,
		"splits", len(out.Splits),
	)
	return &out, nil
}

// SettleSplit marks a split as settled on behalf of callerID.
//
// Only the debtor of the split or the creditor (the payer of its expense) may
// settle it. When the parent expense no longer exists only the debtor may.
// Settling an already settled split returns it unchanged without a write.
func (e *Engine) SettleSplit(ctx context.Context, callerID, splitID string) (*models.Split, error) {
	if splitID == "" {
		return nil, errs.Validation("split id is required")
	}

	var settled *models.Split
	err := e.repos.InTx(ctx, func(tx *repository.Repositories) error {
		split, err := tx.Splits.FindByID(ctx, splitID)
		if err != nil {
			return err
		}
		if split == nil {
			return errs.NotFound("split %s", splitID)
		}

		expense, err := tx.GroupExpenses.FindByID(ctx, split.GroupExpenseID)
		if err != nil {
			return err
		}
		if !canSettle(callerID, split, expense) {
			return errs.Forbidden("user %s cannot settle split %s", callerID, splitID)
		}

		if split.IsSettled {
			settled = split
			return nil
		}

		settled, err = tx.Splits.MarkSettled(ctx, splitID)
		if err != nil {
			return err
		}
		if settled == nil {
			return errs.NotFound("split %s", splitID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Split settled", "split_id", splitID, "settled_by", callerID)
	return settled, nil
}

func canSettle(callerID string, split *models.Split, expense *models.GroupExpense) bool {
	if callerID == "" {
		return false
	}
	if callerID == split.UserID {
		return true
	}
	return expense != nil && callerID == expense.PaidBy
}
