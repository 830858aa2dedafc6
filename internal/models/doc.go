// Package models defines the domain records of the expense tracker and the
// hydrated views built from them.
//
// # Records
//
// Records are what the document store persists, one collection each:
//   - User: a registered account (collection "users")
//   - Expense: a personal expense owned by one user ("expenses")
//   - Group: a set of users sharing costs ("groups")
//   - GroupExpense: an expense paid by one member for the whole group ("groupExpenses")
//   - Split: one member's share of a GroupExpense ("splits")
//
// The JSON tags fix the persisted key order: _id first, the record's own
// fields next, createdAt and updatedAt last. Relationships are plain id
// strings; the repository layer resolves them into views.
//
// # Views
//
// Views are read-only joins returned to callers: UserRef, GroupView,
// GroupExpenseView, SplitView, Debt, Receivable and GroupBalances.
package models
