package repository

import (
	"context"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
)

// UserRepository stores user accounts.
type UserRepository struct {
	q docstore.Querier
}

// Create stores a new user. password must already be hashed. The email check
// and the insert run in one transaction, so two concurrent registrations of
// the same email cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, email, password, name string) (*models.User, error) {
	doc, err := encode(models.CollectionUsers, struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}{email, password, name}, nil)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = r.q.RunInTx(ctx, func(q docstore.Querier) error {
		tx := &UserRepository{q: q}
		exists, err := tx.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return errs.Conflict("email %s already registered", email)
		}
		user, err = insert[models.User](ctx, q, models.CollectionUsers, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID returns the user or nil if absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return docstore.FindAs[models.User](ctx, r.q, models.CollectionUsers, id)
}

// FindByEmail returns the user with the given email or nil.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return docstore.FindOneAs(ctx, r.q, models.CollectionUsers, func(u models.User) bool {
		return u.Email == email
	})
}

// EmailExists reports whether an account uses email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

// Refs resolves user ids into public identities with one collection scan.
// Ids with no matching user are absent from the result; see Ref.
func (r *UserRepository) Refs(ctx context.Context, ids ...string) (map[string]models.UserRef, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	users, err := docstore.FilterAs(ctx, r.q, models.CollectionUsers, func(u models.User) bool {
		_, ok := want[u.ID]
		return ok
	})
	if err != nil {
		return nil, err
	}

	refs := make(map[string]models.UserRef, len(users))
	for i := range users {
		refs[users[i].ID] = users[i].Ref()
	}
	return refs, nil
}

// Ref looks id up in refs. A user that no longer exists yields a UserRef
// carrying only the id.
func Ref(refs map[string]models.UserRef, id string) models.UserRef {
	if ref, ok := refs[id]; ok {
		return ref
	}
	return models.UserRef{ID: id}
}
