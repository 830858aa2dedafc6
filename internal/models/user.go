package models

import "time"

// CollectionUsers is the store collection holding User records.
const CollectionUsers = "users"

// User is a registered account.
type User struct {
	// ID is assigned by the store.
	ID string `json:"_id,omitempty"`

	// Email is unique across all users and used to log in.
	Email string `json:"email"`

	// Password is the bcrypt hash, never the plain password.
	Password string `json:"password"`

	Name string `json:"name"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref returns the public identity of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRef is the public identity embedded in views. A reference to a user that
// no longer exists carries only the ID.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
