package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// ExpenseInput holds the fields of a new expense.
type ExpenseInput struct {
	Title    string
	Amount   float64
	Category string
	// Date defaults to now.
	Date *time.Time
	// PaymentMethod defaults to models.DefaultPaymentMethod.
	PaymentMethod string
	Notes         string
}

// ExpenseQuery filters, sorts and pages an expense listing.
type ExpenseQuery struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Page      int
	Limit     int
	SortBy    string // date (default), amount, title, createdAt
	SortOrder string // asc or desc (default)
}

// ExpenseList is one page of expenses.
type ExpenseList struct {
	Expenses   []models.Expense  `json:"expenses"`
	Pagination models.Pagination `json:"pagination"`
}

// ExpenseService manages personal expenses. Every operation is scoped to the
// calling user.
type ExpenseService struct {
	expenses *repository.ExpenseRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(repos *repository.Repositories, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{expenses: repos.Expenses, now: time.Now, logger: logger}
}

// Create records a new expense owned by userID.
func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (*models.Expense, error) {
	s.logger.Info("CreateExpense request received", "user_id", userID, "title", in.Title, "amount", in.Amount)

	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	switch {
	case title == "":
		return nil, errs.Validation("title is required")
	case !(in.Amount > 0):
		return nil, errs.Validation("amount must be positive")
	case category == "":
		return nil, errs.Validation("category is required")
	}

	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = models.DefaultPaymentMethod
	}

	expense, err := s.expenses.Create(ctx, &models.Expense{
		UserID:        userID,
		Title:         title,
		Amount:        in.Amount,
		Category:      category,
		Date:          date,
		PaymentMethod: method,
		Notes:         in.Notes,
	})
	if err != nil {
		s.logger.Error("CreateExpense failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("Expense created", "expense_id", expense.ID, "user_id", userID)
	return expense, nil
}

// List returns one page of the user's expenses.
func (s *ExpenseService) List(ctx context.Context, userID string, q ExpenseQuery) (*ExpenseList, error) {
	page := models.PageRequest{Page: q.Page, Limit: q.Limit, SortBy: q.SortBy}
	if page.Page <= 0 {
		page.Page = 1
	}
	if page.Limit <= 0 {
		page.Limit = defaultPageLimit
	}
	page.Limit = min(page.Limit, maxPageLimit)

	switch page.SortBy {
	case "":
		page.SortBy = models.SortByDate
	case models.SortByDate, models.SortByAmount, models.SortByTitle, models.SortByCreatedAt:
	default:
		return nil, errs.Validation("cannot sort by %q", q.SortBy)
	}
	switch strings.ToLower(q.SortOrder) {
	case "", "desc":
	case "asc":
		page.Ascending = true
	default:
		return nil, errs.Validation("sort order must be asc or desc")
	}

	filter := models.ExpenseFilter{
		Category:  q.Category,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Search:    q.Search,
	}
	expenses, total, err := s.expenses.FindByUser(ctx, userID, filter, page)
	if err != nil {
		s.logger.Error("ListExpenses failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("ListExpenses successful", "user_id", userID, "count", len(expenses), "total", total)
	return &ExpenseList{
		Expenses: expenses,
		Pagination: models.Pagination{
			Total: total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: (total + page.Limit - 1) / page.Limit,
		},
	}, nil
}

// Get returns an expense owned by userID.
func (s *ExpenseService) Get(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	expense, err := s.expenses.FindByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense == nil {
		return nil, errs.NotFound("expense %s", expenseID)
	}
	if expense.UserID != userID {
		return nil, errs.Forbidden("expense %s belongs to another user", expenseID)
	}
	return expense, nil
}

// Update changes the given fields of an expense owned by userID.
func (s *ExpenseService) Update(ctx context.Context, userID, expenseID string, u repository.ExpenseUpdate) (*models.Expense, error) {
	s.logger.Info("UpdateExpense request received", "user_id", userID, "expense_id", expenseID)

	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, errs.Validation("title cannot be empty")
	}
	if u.Amount != nil && !(*u.Amount > 0) {
		return nil, errs.Validation("amount must be positive")
	}
	if u.Category != nil && strings.TrimSpace(*u.Category) == "" {
		return nil, errs.Validation("category cannot be empty")
	}

	if _, err := s.Get(ctx, userID, expenseID); err != nil {
		return nil, err
	}
	updated, err := s.expenses.Update(ctx, expenseID, u)
	if err != nil {
		s.logger.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	if updated == nil {
		return nil, errs.NotFound("expense %s", expenseID)
	}

	s.logger.Info("Expense updated", "expense_id", expenseID)
	return updated, nil
}

// Delete removes an expense owned by userID.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	s.logger.Info("DeleteExpense request received", "user_id", userID, "expense_id", expenseID)

	if _, err := s.Get(ctx, userID, expenseID); err != nil {
		return err
	}
	found, err := s.expenses.Delete(ctx, expenseID)
	if err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	if !found {
		return errs.NotFound("expense %s", expenseID)
	}

	s.logger.Info("Expense deleted", "expense_id", expenseID)
	return nil
}

// MonthlySummary totals the user's expenses per month of year. A zero year
// means the current year.
func (s *ExpenseService) MonthlySummary(ctx context.Context, userID string, year int) ([]models.MonthlyTotal, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	if year < 1970 || year > 9999 {
		return nil, errs.Validation("invalid year %d", year)
	}
	return s.expenses.MonthlySummary(ctx, userID, year)
}
