package service

import (
	"context"
	"fmt"
	"sort"

	"kickwager/config"
	"kickwager/models"

	"github.com/google/uuid"
)

type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	batchSize  int
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(uowFactory UnitOfWorkFactory, cfg *config.Config) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		batchSize:  cfg.LeaderboardBatchSize,
	}
}

func (s *leaderboardService) GetGlobalLeaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	return BuildLeaderboard(bets), nil
}

func (s *leaderboardService) GetGroupLeaderboard(ctx context.Context, callerID, groupID uuid.UUID) ([]*models.LeaderboardEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	group, err := loadGroupForMember(ctx, uow, callerID, groupID)
	if err != nil {
		return nil, err
	}

	// Membership is read now, so former members drop out of the ranking
	var bets []*models.Bet
	for _, chunk := range chunkIDs(group.MemberIDs(), s.batchSize) {
		chunkBets, err := uow.BetRepository().GetByUsers(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to get bets for group members: %w", err)
		}
		bets = append(bets, chunkBets...)
	}

	return BuildLeaderboard(bets), nil
}

// BuildLeaderboard folds bets into one ranked entry per user.
// Entries are ordered by points descending, then fewer bets, then username and id.
func BuildLeaderboard(bets []*models.Bet) []*models.LeaderboardEntry {
	byUser := make(map[uuid.UUID]*models.LeaderboardEntry)
	entries := make([]*models.LeaderboardEntry, 0)

	for _, bet := range bets {
		entry, ok := byUser[bet.UserID]
		if !ok {
			// The first bet seen names the entry
			entry = &models.LeaderboardEntry{UserID: bet.UserID, Username: bet.Username}
			byUser[bet.UserID] = entry
			entries = append(entries, entry)
		}

		entry.TotalPoints += int64(bet.PointsEarned)
		entry.TotalBets++
		if bet.PointsEarned > 0 {
			entry.CorrectWinners++
		}
		if bet.PointsEarned >= models.PointsExactHomeScore {
			entry.CorrectScores++
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.TotalBets != b.TotalBets {
			return a.TotalBets < b.TotalBets
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.UserID.String() < b.UserID.String()
	})

	for i, entry := range entries {
		entry.Rank = i + 1
	}

	return entries
}

// chunkIDs splits ids into consecutive batches of at most size ids
func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	if size < 1 {
		size = 1
	}

	chunks := make([][]uuid.UUID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
