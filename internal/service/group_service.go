package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
)

// GroupService manages groups and their membership.
type GroupService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(repos *repository.Repositories, logger *slog.Logger) *GroupService {
	return &GroupService{repos: repos, logger: logger}
}

// Create creates a group with userID as creator and first member.
func (s *GroupService) Create(ctx context.Context, userID, name string) (*models.GroupView, error) {
	name = strings.TrimSpace(name)
	s.logger.Info("CreateGroup request received", "user_id", userID, "name", name)

	if name == "" {
		return nil, errs.Validation("group name is required")
	}

	group, err := s.repos.Groups.Create(ctx, name, userID)
	if err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return s.repos.Groups.View(ctx, group)
}

// ListForUser returns the groups userID belongs to, newest first.
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	groups, err := s.repos.Groups.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, err
	}
	s.logger.Info("ListGroups successful", "user_id", userID, "count", len(groups))
	return groups, nil
}

// Get returns a group with its members resolved. Only members may read it.
func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*models.GroupView, error) {
	group, err := memberGroup(ctx, s.repos, userID, groupID)
	if err != nil {
		return nil, err
	}
	return s.repos.Groups.View(ctx, group)
}

// AddMember adds the user registered with email to the group. Only the
// creator may add members.
func (s *GroupService) AddMember(ctx context.Context, userID, groupID, email string) (*models.GroupView, error) {
	email = normalizeEmail(email)
	s.logger.Info("AddMember request received", "user_id", userID, "group_id", groupID, "email", email)

	if email == "" {
		return nil, errs.Validation("email is required")
	}

	var updated *models.Group
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		group, err := tx.Groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return errs.NotFound("group %s", groupID)
		}
		if !group.IsCreator(userID) {
			return errs.Forbidden("only the group creator can add members")
		}

		user, err := tx.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			return errs.NotFound("user with email %s", email)
		}
		if group.IsMember(user.ID) {
			return errs.Conflict("user is already a member of this group")
		}

		updated, err = tx.Groups.AddMember(ctx, groupID, user.ID)
		return err
	})
	if err != nil {
		s.logger.Warn("AddMember failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.logger.Info("Member added", "group_id", groupID, "members_count", len(updated.Members))
	return s.repos.Groups.View(ctx, updated)
}

// RemoveMember removes memberID from the group. The creator may remove anyone
// but themself; any other member may only remove themself.
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, memberID string) (*models.GroupView, error) {
	s.logger.Info("RemoveMember request received", "user_id", userID, "group_id", groupID, "member_id", memberID)

	var updated *models.Group
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		group, err := tx.Groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return errs.NotFound("group %s", groupID)
		}
		if !group.IsCreator(userID) && userID != memberID {
			return errs.Forbidden("not authorized to remove this member")
		}
		if group.IsCreator(memberID) {
			return errs.Forbidden("cannot remove group creator")
		}
		if !group.IsMember(memberID) {
			return errs.NotFound("user %s is not a member of this group", memberID)
		}

		updated, err = tx.Groups.RemoveMember(ctx, groupID, memberID)
		return err
	})
	if err != nil {
		s.logger.Warn("RemoveMember failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.logger.Info("Member removed", "group_id", groupID, "member_id", memberID)
	return s.repos.Groups.View(ctx, updated)
}

// Delete removes a group together with its expenses and their splits in one
// transaction. Only the creator may delete a group.
func (s *GroupService) Delete(ctx context.Context, userID, groupID string) error {
	s.logger.Info("DeleteGroup request received", "user_id", userID, "group_id", groupID)

	var expenses, splits int
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		group, err := tx.Groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if group == nil {
			return errs.NotFound("group %s", groupID)
		}
		if !group.IsCreator(userID) {
			return errs.Forbidden("only the creator can delete the group")
		}

		groupExpenses, err := tx.GroupExpenses.FindByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		for _, e := range groupExpenses {
			n, err := tx.Splits.DeleteByExpense(ctx, e.ID)
			if err != nil {
				return err
			}
			splits += n
			if _, err := tx.GroupExpenses.Delete(ctx, e.ID); err != nil {
				return err
			}
			expenses++
		}

		_, err = tx.Groups.Delete(ctx, groupID)
		return err
	})
	if err != nil {
		s.logger.Warn("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}

	s.logger.Info("Group deleted", "group_id", groupID, "expenses", expenses, "splits", splits)
	return nil
}

// memberGroup loads a group that userID belongs to.
func memberGroup(ctx context.Context, repos *repository.Repositories, userID, groupID string) (*models.Group, error) {
	group, err := repos.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, errs.NotFound("group %s", groupID)
	}
	if !group.IsMember(userID) {
		return nil, errs.Forbidden("not a member of group %s", groupID)
	}
	return group, nil
}
