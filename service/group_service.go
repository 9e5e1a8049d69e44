package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"kickwager/config"
	"kickwager/events"
	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type groupService struct {
	uowFactory    UnitOfWorkFactory
	clock         Clock
	codes         InviteCodeGenerator
	codeAttempts  int
	nameMinLength int
}

// NewGroupService creates a new group service
func NewGroupService(uowFactory UnitOfWorkFactory, clock Clock, codes InviteCodeGenerator, cfg *config.Config) GroupService {
	return &groupService{
		uowFactory:    uowFactory,
		clock:         clock,
		codes:         codes,
		codeAttempts:  cfg.InviteCodeAttempts,
		nameMinLength: cfg.GroupNameMinLength,
	}
}

func (s *groupService) validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if utf8.RuneCountInString(trimmed) < s.nameMinLength {
		return "", validation("group name must be at least %d characters", s.nameMinLength)
	}
	return trimmed, nil
}

// loadGroupForMember fetches a group the caller belongs to
func loadGroupForMember(ctx context.Context, uow UnitOfWork, callerID, groupID uuid.UUID) (*models.Group, error) {
	group, err := uow.GroupRepository().GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, notFound("group")
	}
	if !group.IsMember(callerID) {
		return nil, unauthorized("only group members can view this group")
	}
	return group, nil
}

// lockGroupForAdmin fetches and locks a group the caller administers
func lockGroupForAdmin(ctx context.Context, uow UnitOfWork, callerID, groupID uuid.UUID) (*models.Group, error) {
	group, err := uow.GroupRepository().GetByIDForUpdate(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, notFound("group")
	}
	if !group.IsAdmin(callerID) {
		return nil, unauthorized("only the group admin can do this")
	}
	return group, nil
}

// uniqueInviteCode draws codes until one is unused or attempts run out
func (s *groupService) uniqueInviteCode(ctx context.Context, uow UnitOfWork) (string, error) {
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}

		exists, err := uow.GroupRepository().InviteCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if !exists {
			return code, nil
		}

		log.WithField("attempt", attempt).Debug("Invite code collision, retrying")
	}

	return "", conflict("could not generate a unique invite code after %d attempts", s.codeAttempts)
}

func (s *groupService) CreateGroup(ctx context.Context, userID uuid.UUID, name string) (*models.Group, error) {
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	code, err := s.uniqueInviteCode(ctx, uow)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:            uuid.New(),
		Name:          name,
		InviteCode:    code,
		AdminID:       user.ID,
		AdminUsername: user.Username,
		Members: []*models.GroupMember{
			{UserID: user.ID, Username: user.Username, JoinedAt: s.clock.Now()},
		},
	}

	// The unique index catches a code taken after the existence check
	if err := uow.GroupRepository().Create(ctx, group); err != nil {
		if errors.Is(err, ErrInviteCodeTaken) {
			return nil, ErrInviteCodeTaken
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"groupID": group.ID,
		"adminID": user.ID,
	}).Info("Group created")

	return group, nil
}

func (s *groupService) JoinGroup(ctx context.Context, userID uuid.UUID, inviteCode string) (*models.Group, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	group, err := uow.GroupRepository().GetByInviteCodeForUpdate(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invite code: %w", err)
	}
	if group == nil {
		return nil, notFound("group for invite code")
	}
	if group.IsMember(userID) {
		return nil, ErrAlreadyMember
	}

	member := &models.GroupMember{
		UserID:   user.ID,
		Username: user.Username,
		JoinedAt: s.clock.Now(),
	}
	if err := uow.GroupRepository().AddMember(ctx, group.ID, member); err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	group.Members = append(group.Members, member)

	uow.EventBus().Publish(events.GroupMembershipChangedEvent{
		GroupID: group.ID,
		UserID:  userID,
		Change:  string(models.MembershipJoined),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return group, nil
}

func (s *groupService) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	group, err := uow.GroupRepository().GetByIDForUpdate(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return notFound("group")
	}
	if group.IsAdmin(userID) {
		return conflict("the group admin cannot leave, delete the group instead")
	}
	if !group.IsMember(userID) {
		return notFound("group membership")
	}

	if err := uow.GroupRepository().RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	uow.EventBus().Publish(events.GroupMembershipChangedEvent{
		GroupID: groupID,
		UserID:  userID,
		Change:  string(models.MembershipLeft),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *groupService) KickMember(ctx context.Context, adminID, groupID, targetID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	group, err := lockGroupForAdmin(ctx, uow, adminID, groupID)
	if err != nil {
		return err
	}
	if group.IsAdmin(targetID) {
		return conflict("cannot kick the group admin")
	}
	if !group.IsMember(targetID) {
		return notFound("group member")
	}

	if err := uow.GroupRepository().RemoveMember(ctx, groupID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	uow.EventBus().Publish(events.GroupMembershipChangedEvent{
		GroupID: groupID,
		UserID:  targetID,
		Change:  string(models.MembershipKicked),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *groupService) RenameGroup(ctx context.Context, adminID, groupID uuid.UUID, name string) (*models.Group, error) {
	name, err := s.validateName(name)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	group, err := lockGroupForAdmin(ctx, uow, adminID, groupID)
	if err != nil {
		return nil, err
	}

	if err := uow.GroupRepository().Rename(ctx, groupID, name); err != nil {
		return nil, fmt.Errorf("failed to rename group: %w", err)
	}
	group.Name = name

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return group, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, adminID, groupID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := lockGroupForAdmin(ctx, uow, adminID, groupID); err != nil {
		return err
	}

	// Member bets are not touched
	if err := uow.GroupRepository().Delete(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("groupID", groupID).Info("Group deleted")
	return nil
}

func (s *groupService) GetGroup(ctx context.Context, callerID, groupID uuid.UUID) (*models.Group, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return loadGroupForMember(ctx, uow, callerID, groupID)
}

func (s *groupService) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	groups, err := uow.GroupRepository().GetByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}
