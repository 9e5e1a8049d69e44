package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a player with their accumulated score
type User struct {
	ID          uuid.UUID `db:"id"`
	Username    string    `db:"username"`
	Email       string    `db:"email"`
	IsAdmin     bool      `db:"is_admin"`
	TotalPoints int64     `db:"total_points"` // Only ever changed by settlement
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
