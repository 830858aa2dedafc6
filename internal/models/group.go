package models

import (
	"slices"
	"time"
)

// CollectionGroups is the store collection holding Group records.
const CollectionGroups = "groups"

// Group is a set of users sharing costs.
//
// The creator is always the first member and can never be removed. Members
// keep their insertion order and contain no duplicates.
type Group struct {
	ID        string   `json:"_id,omitempty"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"createdBy"`
	Members   []string `json:"members"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsMember reports whether userID belongs to the group.
func (g *Group) IsMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

// IsCreator reports whether userID created the group.
func (g *Group) IsCreator(userID string) bool {
	return g.CreatedBy == userID
}

// GroupView is a group with its members resolved. Members whose account no
// longer exists are left out.
type GroupView struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	Members   []UserRef `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
