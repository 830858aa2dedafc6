package repository

import (
	"context"
	"slices"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/models"
)

// GroupRepository stores groups and their membership.
type GroupRepository struct {
	q docstore.Querier
}

// Create stores a group whose creator is its first member.
func (r *GroupRepository) Create(ctx context.Context, name, creatorID string) (*models.Group, error) {
	doc, err := encode(models.CollectionGroups, struct {
		Name      string   `json:"name"`
		CreatedBy string   `json:"createdBy"`
		Members   []string `json:"members"`
	}{name, creatorID, []string{creatorID}}, nil)
	if err != nil {
		return nil, err
	}
	return insert[models.Group](ctx, r.q, models.CollectionGroups, doc)
}

// FindByID returns the group or nil if absent.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	return docstore.FindAs[models.Group](ctx, r.q, models.CollectionGroups, id)
}

// FindByUser returns the groups userID belongs to, newest first.
func (r *GroupRepository) FindByUser(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := docstore.FilterAs(ctx, r.q, models.CollectionGroups, func(g models.Group) bool {
		return g.IsMember(userID)
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(groups, func(a, b models.Group) int {
		return newerFirst(a.CreatedAt, b.CreatedAt)
	})
	return groups, nil
}

// IsMember reports whether userID belongs to the group. An absent group has no members.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	g, err := r.FindByID(ctx, groupID)
	if err != nil || g == nil {
		return false, err
	}
	return g.IsMember(userID), nil
}

// IsCreator reports whether userID created the group.
func (r *GroupRepository) IsCreator(ctx context.Context, groupID, userID string) (bool, error) {
	g, err := r.FindByID(ctx, groupID)
	if err != nil || g == nil {
		return false, err
	}
	return g.IsCreator(userID), nil
}

// AddMember appends userID to the group's members. Adding an existing member
// is a no-op. It returns nil when the group is absent.
//
// Run it inside InTx when the caller checked membership first, so the check
// and the write see the same state.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	g, err := r.FindByID(ctx, groupID)
	if err != nil || g == nil {
		return nil, err
	}
	if g.IsMember(userID) {
		return g, nil
	}
	return r.setMembers(ctx, groupID, append(slices.Clone(g.Members), userID))
}

// RemoveMember drops userID from the group's members, keeping the order of the
// others. It returns nil when the group is absent.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	g, err := r.FindByID(ctx, groupID)
	if err != nil || g == nil {
		return nil, err
	}
	if !g.IsMember(userID) {
		return g, nil
	}
	members := slices.DeleteFunc(slices.Clone(g.Members), func(m string) bool { return m == userID })
	return r.setMembers(ctx, groupID, members)
}

func (r *GroupRepository) setMembers(ctx context.Context, groupID string, members []string) (*models.Group, error) {
	p := newPatch(models.CollectionGroups).set("members", members)
	return apply[models.Group](ctx, r.q, p, groupID)
}

// Delete removes the group record only; see the group service for the cascade.
func (r *GroupRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.q.Delete(ctx, models.CollectionGroups, id)
}

// View resolves the group's members. Members without an account are left out.
func (r *GroupRepository) View(ctx context.Context, g *models.Group) (*models.GroupView, error) {
	users := &UserRepository{q: r.q}
	refs, err := users.Refs(ctx, g.Members...)
	if err != nil {
		return nil, err
	}

	members := make([]models.UserRef, 0, len(g.Members))
	for _, id := range g.Members {
		if ref, ok := refs[id]; ok {
			members = append(members, ref)
		}
	}

	return &models.GroupView{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}, nil
}
