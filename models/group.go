package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupMember is a member of a group with a snapshot of their username
type GroupMember struct {
	UserID   uuid.UUID `db:"user_id"`
	Username string    `db:"username"`
	JoinedAt time.Time `db:"joined_at"`
}

// Group represents a private league joined through an invite code
type Group struct {
	ID            uuid.UUID      `db:"id"`
	Name          string         `db:"name"`
	InviteCode    string         `db:"invite_code"`
	AdminID       uuid.UUID      `db:"admin_id"`
	AdminUsername string         `db:"admin_username"`
	Members       []*GroupMember `db:"-"`
	CreatedAt     time.Time      `db:"created_at"`
}

// MemberIDs returns the ids of all members in join order
func (g *Group) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// IsMember checks if a user belongs to the group
func (g *Group) IsMember(userID uuid.UUID) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin checks if a user administers the group
func (g *Group) IsAdmin(userID uuid.UUID) bool {
	return g.AdminID == userID
}

// MembershipChange is the kind of change applied to a group's member list
type MembershipChange string

const (
	MembershipJoined MembershipChange = "joined"
	MembershipLeft   MembershipChange = "left"
	MembershipKicked MembershipChange = "kicked"
)
