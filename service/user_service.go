package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"kickwager/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxUsernameLength = 100

type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func validateUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", validation("username is required")
	}
	if len(trimmed) > maxUsernameLength {
		return "", validation("username must be at most %d characters", maxUsernameLength)
	}
	return trimmed, nil
}

func (s *userService) Register(ctx context.Context, username, email string) (*models.User, error) {
	username, err := validateUsername(username)
	if err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, validation("invalid email address")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().GetByEmail(ctx, addr.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    addr.Address,
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
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
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, adminID uuid.UUID) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return nil, err
	}

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) MakeAdmin(ctx context.Context, adminID, userID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	target, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return notFound("user")
	}

	if err := uow.UserRepository().SetAdmin(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"grantedBy": adminID,
	}).Info("Admin role granted")

	return nil
}

func (s *userService) GrantAdminByEmail(ctx context.Context, email string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	if err := uow.UserRepository().SetAdmin(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("failed to grant admin: %w", err)
	}
	user.IsAdmin = true

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// RenameUser updates the user row and every username snapshot in one transaction
func (s *userService) RenameUser(ctx context.Context, userID uuid.UUID, username string) (*models.User, error) {
	username, err := validateUsername(username)
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

	if err := uow.UserRepository().UpdateUsername(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to update username: %w", err)
	}
	if err := uow.BetRepository().UpdateUsername(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to update bet usernames: %w", err)
	}
	if err := uow.GroupRepository().UpdateMemberUsername(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to update group usernames: %w", err)
	}
	user.Username = username

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := removeUser(ctx, uow, userID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *userService) DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireAdmin(ctx, uow, adminID); err != nil {
		return err
	}

	if err := removeUser(ctx, uow, userID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"deletedBy": adminID,
	}).Info("User deleted by admin")

	return nil
}

// removeUser deletes a user's bets, administered groups and memberships, then the user
func removeUser(ctx context.Context, uow UnitOfWork, userID uuid.UUID) error {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return notFound("user")
	}

	betsRemoved, err := uow.BetRepository().DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bets: %w", err)
	}

	administered, err := uow.GroupRepository().GetByAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get administered groups: %w", err)
	}
	for _, group := range administered {
		if err := uow.GroupRepository().Delete(ctx, group.ID); err != nil {
			return fmt.Errorf("failed to delete group %s: %w", group.ID, err)
		}
	}

	// Administered groups are gone, so these are only groups the user joined
	joined, err := uow.GroupRepository().GetByMember(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get groups: %w", err)
	}
	for _, group := range joined {
		if err := uow.GroupRepository().RemoveMember(ctx, group.ID, userID); err != nil {
			return fmt.Errorf("failed to leave group %s: %w", group.ID, err)
		}
	}

	if err := uow.UserRepository().Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":        userID,
		"betsRemoved":   betsRemoved,
		"groupsDeleted": len(administered),
		"groupsLeft":    len(joined),
	}).Info("Account deleted")

	return nil
}
