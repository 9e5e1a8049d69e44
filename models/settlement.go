package models

import (
	"github.com/google/uuid"
)

// SettlementResult summarizes a settlement pass over one game
type SettlementResult struct {
	GameID        uuid.UUID
	HomeScore     int
	AwayScore     int
	BetsSettled   int
	UsersAffected int
	PointDeltas   map[uuid.UUID]int64 // Only non-zero deltas
	Corrected     bool                // The game already had a final score
}
