package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kickwager/database"
	"kickwager/models"
	"kickwager/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const groupColumns = `g.id, g.name, g.invite_code, g.admin_id, g.admin_username, g.created_at`

// GroupRepository implements the GroupRepository interface.
// Members live in group_members so the id set and the member details are the same rows.
type GroupRepository struct {
	q queryable
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{q: db.Pool}
}

// newGroupRepositoryWithTx creates a new group repository with a transaction
func newGroupRepositoryWithTx(tx queryable) *GroupRepository {
	return &GroupRepository{q: tx}
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var group models.Group
	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.InviteCode,
		&group.AdminID,
		&group.AdminUsername,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) getOne(ctx context.Context, query string, args ...any) (*models.Group, error) {
	group, err := scanGroup(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, []*models.Group{group}); err != nil {
		return nil, err
	}
	return group, nil
}

func (r *GroupRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	if err := r.loadMembers(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// loadMembers fills the member list of each group in join order
func (r *GroupRepository) loadMembers(ctx context.Context, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.Group, len(groups))
	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		g.Members = []*models.GroupMember{}
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}

	query := `
		SELECT group_id, user_id, username, joined_at
		FROM group_members
		WHERE group_id = ANY($1)
		ORDER BY joined_at, user_id
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID uuid.UUID
		var member models.GroupMember
		if err := rows.Scan(&groupID, &member.UserID, &member.Username, &member.JoinedAt); err != nil {
			return fmt.Errorf("failed to scan group member: %w", err)
		}
		if g, ok := byID[groupID]; ok {
			g.Members = append(g.Members, &member)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating group members: %w", err)
	}
	return nil
}

// GetByID retrieves a group with its members
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group, err := r.getOne(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}
	return group, nil
}

// GetByIDForUpdate retrieves a group with its members and locks the group row
func (r *GroupRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group, err := r.getOne(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock group %s: %w", id, err)
	}
	return group, nil
}

// GetByInviteCodeForUpdate resolves an invite code regardless of case and locks the group row
func (r *GroupRepository) GetByInviteCodeForUpdate(ctx context.Context, code string) (*models.Group, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	group, err := r.getOne(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.invite_code = $1 FOR UPDATE`, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}
	return group, nil
}

// InviteCodeExists checks whether a code is already taken
func (r *GroupRepository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE invite_code = $1)`,
		strings.ToUpper(code),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

// GetByMember returns every group the user belongs to
func (r *GroupRepository) GetByMember(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at, g.id
	`
	return r.getMany(ctx, query, userID)
}

// GetByAdmin returns every group the user administers
func (r *GroupRepository) GetByAdmin(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.admin_id = $1 ORDER BY g.created_at, g.id`
	return r.getMany(ctx, query, userID)
}

// Create inserts a group and its initial members
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO groups (id, name, invite_code, admin_id, admin_username)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		group.ID,
		group.Name,
		group.InviteCode,
		group.AdminID,
		group.AdminUsername,
	).Scan(&group.CreatedAt)

	if isUniqueViolation(err, "idx_groups_invite_code") {
		return service.ErrInviteCodeTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for _, m := range group.Members {
		if err := r.AddMember(ctx, group.ID, m); err != nil {
			return err
		}
	}
	return nil
}

// AddMember inserts one membership row
func (r *GroupRepository) AddMember(ctx context.Context, groupID uuid.UUID, member *models.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, username, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.Exec(ctx, query, groupID, member.UserID, member.Username, member.JoinedAt)
	if isUniqueViolation(err, "group_members_pkey") {
		return service.ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("failed to add member %s to group %s: %w", member.UserID, groupID, err)
	}
	return nil
}

// RemoveMember deletes one membership row
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member %s from group %s: %w", userID, groupID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s is not a member of group %s", userID, groupID)
	}

	return nil
}

// Rename changes the name of a group
func (r *GroupRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	result, err := r.q.Exec(ctx, `UPDATE groups SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename group %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("group %s not found", id)
	}

	return nil
}

// Delete removes a group and its memberships
func (r *GroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("group %s not found", id)
	}

	return nil
}

// UpdateMemberUsername refreshes a user's username snapshots across groups
func (r *GroupRepository) UpdateMemberUsername(ctx context.Context, userID uuid.UUID, username string) error {
	if _, err := r.q.Exec(ctx, `UPDATE group_members SET username = $1 WHERE user_id = $2`, username, userID); err != nil {
		return fmt.Errorf("failed to update member usernames of user %s: %w", userID, err)
	}
	if _, err := r.q.Exec(ctx, `UPDATE groups SET admin_username = $1 WHERE admin_id = $2`, username, userID); err != nil {
		return fmt.Errorf("failed to update admin username of user %s: %w", userID, err)
	}
	return nil
}
