package rpc

import (
	"time"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
	"github.com/mmynk/expense-tracker/internal/service"
)

// Empty is the message of procedures that take or return nothing.
type Empty struct{}

// Auth messages.

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  models.UserRef `json:"user"`
	Token string         `json:"token"`
}

type UserResponse struct {
	User models.UserRef `json:"user"`
}

// Expense messages. Dates are RFC 3339 timestamps or plain YYYY-MM-DD days.

type CreateExpenseRequest struct {
	Title         string  `json:"title"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Date          string  `json:"date,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

type ListExpensesRequest struct {
	Category  string `json:"category,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Search    string `json:"search,omitempty"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

type ExpenseRequest struct {
	ID string `json:"id"`
}

// UpdateExpenseRequest changes only the fields that are present.
type UpdateExpenseRequest struct {
	ID            string   `json:"id"`
	Title         *string  `json:"title,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Date          *string  `json:"date,omitempty"`
	PaymentMethod *string  `json:"paymentMethod,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

type ExpenseResponse struct {
	Expense *models.Expense `json:"expense"`
}

type MonthlySummaryRequest struct {
	// Year defaults to the current year.
	Year int `json:"year,omitempty"`
}

type MonthlySummaryResponse struct {
	Year   int                   `json:"year"`
	Months []models.MonthlyTotal `json:"months"`
}

// Group messages.

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type GroupRequest struct {
	GroupID string `json:"groupId"`
}

type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type GroupResponse struct {
	Group *models.GroupView `json:"group"`
}

type ListGroupsResponse struct {
	Groups []models.Group `json:"groups"`
}

// Group expense messages.

type CreateGroupExpenseRequest struct {
	GroupID     string  `json:"groupId"`
	TotalAmount float64 `json:"totalAmount"`
	Description string  `json:"description"`
}

type CreateGroupExpenseResponse struct {
	Expense *models.GroupExpense `json:"groupExpense"`
	Splits  []models.Split       `json:"splits"`
}

type ListGroupExpensesResponse struct {
	Expenses []models.GroupExpenseView `json:"groupExpenses"`
}

type ListSplitsRequest struct {
	GroupExpenseID string `json:"groupExpenseId"`
}

type ListSplitsResponse struct {
	Splits []models.SplitView `json:"splits"`
}

type SettleSplitRequest struct {
	SplitID string `json:"splitId"`
}

type SplitResponse struct {
	Split *models.Split `json:"split"`
}

type ListMyDebtsResponse struct {
	Debts []models.Debt `json:"debts"`
}

type ListMyReceivablesResponse struct {
	Receivables []models.Receivable `json:"receivables"`
}

type GroupBalancesResponse struct {
	Balances *models.GroupBalances `json:"balances"`
}

const dayLayout = "2006-01-02"

// parseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD day (midnight UTC).
// An empty string yields nil.
func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, dayLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errs.Validation("%s: invalid date %q", field, s)
}

func (r *CreateExpenseRequest) input() (service.ExpenseInput, error) {
	date, err := parseDate("date", r.Date)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{
		Title:         r.Title,
		Amount:        r.Amount,
		Category:      r.Category,
		Date:          date,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}, nil
}

func (r *ListExpensesRequest) query() (service.ExpenseQuery, error) {
	start, err := parseDate("startDate", r.StartDate)
	if err != nil {
		return service.ExpenseQuery{}, err
	}
	end, err := parseDate("endDate", r.EndDate)
	if err != nil {
		return service.ExpenseQuery{}, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return service.ExpenseQuery{}, errs.Validation("endDate %s is before startDate %s", r.EndDate, r.StartDate)
	}
	return service.ExpenseQuery{
		Category:  r.Category,
		StartDate: start,
		EndDate:   end,
		Search:    r.Search,
		Page:      r.Page,
		Limit:     r.Limit,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
	}, nil
}

func requireID(field, id string) error {
	if id == "" {
		return errs.Validation("%s is required", field)
	}
	return nil
}

func (r *UpdateExpenseRequest) update() (repository.ExpenseUpdate, error) {
	u := repository.ExpenseUpdate{
		Title:         r.Title,
		Amount:        r.Amount,
		Category:      r.Category,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
	if r.Date != nil {
		date, err := parseDate("date", *r.Date)
		if err != nil {
			return u, err
		}
		u.Date = date
	}
	return u, nil
}
