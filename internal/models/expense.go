package models

import "time"

// CollectionExpenses is the store collection holding Expense records.
const CollectionExpenses = "expenses"

// DefaultPaymentMethod is used when an expense is created without one.
const DefaultPaymentMethod = "cash"

// Expense is a personal expense owned by exactly one user.
type Expense struct {
	ID     string `json:"_id,omitempty"`
	UserID string `json:"userId"`
	Title  string `json:"title"`

	// Amount is always positive.
	Amount float64 `json:"amount"`

	Category      string    `json:"category"`
	Date          time.Time `json:"date"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExpenseFilter narrows an expense listing. Zero values disable a filter.
type ExpenseFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	// Search matches the title, case-insensitively.
	Search string
}

// Sortable expense fields.
const (
	SortByDate      = "date"
	SortByAmount    = "amount"
	SortByTitle     = "title"
	SortByCreatedAt = "createdAt"
)

// PageRequest selects one page of a sorted listing.
type PageRequest struct {
	Page      int
	Limit     int
	SortBy    string
	Ascending bool
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// MonthlyTotal is one month of a yearly summary; Month runs from 1 to 12.
type MonthlyTotal struct {
	Month       int     `json:"month"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
}
