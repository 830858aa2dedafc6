package models

import "time"

// Store collections for the split subsystem.
const (
	CollectionGroupExpenses = "groupExpenses"
	CollectionSplits        = "splits"
)

// GroupExpense is an expense paid by one member on behalf of the whole group.
type GroupExpense struct {
	ID      string `json:"_id,omitempty"`
	GroupID string `json:"groupId"`

	// PaidBy is the member who paid, and the creditor of every split.
	PaidBy string `json:"paidBy"`

	// TotalAmount is always positive.
	TotalAmount float64   `json:"totalAmount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Split is one member's share of a GroupExpense. There is one split per
// (expense, member) pair; the payer's own split is settled on creation.
type Split struct {
	ID             string `json:"_id,omitempty"`
	GroupExpenseID string `json:"groupExpenseId"`

	// UserID is the debtor.
	UserID string `json:"userId"`

	ShareAmount float64 `json:"shareAmount"`

	// IsSettled only ever moves from false to true.
	IsSettled bool `json:"isSettled"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupExpenseView is a group expense with the payer resolved.
type GroupExpenseView struct {
	ID          string    `json:"_id"`
	GroupID     string    `json:"groupId"`
	PaidBy      UserRef   `json:"paidBy"`
	TotalAmount float64   `json:"totalAmount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SplitView is a split with the debtor resolved.
type SplitView struct {
	ID             string    `json:"_id"`
	GroupExpenseID string    `json:"groupExpenseId"`
	User           UserRef   `json:"userId"`
	ShareAmount    float64   `json:"shareAmount"`
	IsSettled      bool      `json:"isSettled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Debt is an unsettled split the user owes to the payer of its expense.
type Debt struct {
	SplitID     string    `json:"splitId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	OwedTo      UserRef   `json:"owedTo"`
}

// Receivable is an unsettled split another member owes the user.
type Receivable struct {
	SplitID     string    `json:"splitId"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	OwedBy      UserRef   `json:"owedBy"`
}

// MemberBalance is a member's net position in a group: positive when the
// group owes them, negative when they owe the group.
type MemberBalance struct {
	User    UserRef `json:"user"`
	Balance float64 `json:"balance"`
}

// Transfer is one payment that clears part of the group's debts.
type Transfer struct {
	From   UserRef `json:"from"`
	To     UserRef `json:"to"`
	Amount float64 `json:"amount"`
}

// GroupBalances summarizes the unsettled splits of a group.
type GroupBalances struct {
	GroupID   string          `json:"groupId"`
	Balances  []MemberBalance `json:"balances"`
	Transfers []Transfer      `json:"transfers"`
}
