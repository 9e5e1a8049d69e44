package service

import (
	"context"

	"kickwager/events"
	"kickwager/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user, returning nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a new user, returning ErrDuplicateEmail on a taken email
	Create(ctx context.Context, user *models.User) error

	// IncrementPoints applies a signed delta to a user's total points
	IncrementPoints(ctx context.Context, id uuid.UUID, delta int64) error

	// UpdateUsername changes the user's display name
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) error

	// SetAdmin grants or revokes the admin role
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error

	// Delete removes a user
	Delete(ctx context.Context, id uuid.UUID) error

	// GetAll returns all users ordered by username
	GetAll(ctx context.Context) ([]*models.User, error)
}

// GameRepository defines the interface for game data access
type GameRepository interface {
	// GetByID retrieves a game, returning nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)

	// GetByIDForUpdate retrieves a game and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Game, error)

	// GetByIDForShare retrieves a game and holds off finalization until the transaction ends
	GetByIDForShare(ctx context.Context, id uuid.UUID) (*models.Game, error)

	// List returns games matching the filter ordered by start time
	List(ctx context.Context, filter models.GameFilter) ([]*models.Game, error)

	// Create inserts a new game
	Create(ctx context.Context, game *models.Game) error

	// UpdateStatus changes the status of a game that has no final score
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.GameStatus) error

	// SetFinalScore marks the game finished with both scores
	SetFinalScore(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error

	// Delete removes a game
	Delete(ctx context.Context, id uuid.UUID) error
}

// BetRepository defines the interface for bet data access.
// Lists are ordered by creation time.
type BetRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bet, error)
	GetByUserAndGame(ctx context.Context, userID, gameID uuid.UUID) (*models.Bet, error)
	GetByGame(ctx context.Context, gameID uuid.UUID) ([]*models.Bet, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.Bet, error)
	GetByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*models.Bet, error)
	GetByUsersAndGame(ctx context.Context, userIDs []uuid.UUID, gameID uuid.UUID) ([]*models.Bet, error)
	GetAll(ctx context.Context) ([]*models.Bet, error)

	// Create inserts a new bet, returning ErrDuplicateBet if the user already bet on the game
	Create(ctx context.Context, bet *models.Bet) error

	// UpdatePrediction changes only the predicted scores
	UpdatePrediction(ctx context.Context, id uuid.UUID, homeScore, awayScore int) error

	// UpdatePoints stores the absolute points earned by a bet
	UpdatePoints(ctx context.Context, id uuid.UUID, points int) error

	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByGame(ctx context.Context, gameID uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// UpdateUsername refreshes the username snapshot on every bet of a user
	UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error
}

// GroupRepository defines the interface for group data access.
// Groups are always returned with their members loaded.
type GroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)

	// GetByIDForUpdate retrieves a group and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Group, error)

	// GetByInviteCodeForUpdate resolves an invite code case-insensitively and locks the group row
	GetByInviteCodeForUpdate(ctx context.Context, code string) (*models.Group, error)

	InviteCodeExists(ctx context.Context, code string) (bool, error)
	GetByMember(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)
	GetByAdmin(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)

	// Create inserts the group together with its initial members
	Create(ctx context.Context, group *models.Group) error

	// AddMember inserts one membership, returning ErrAlreadyMember if it exists
	AddMember(ctx context.Context, groupID uuid.UUID, member *models.GroupMember) error

	// RemoveMember deletes one membership
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error

	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateMemberUsername refreshes the username snapshots of a user in every group
	UpdateMemberUsername(ctx context.Context, userID uuid.UUID, username string) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and releases queued events
	Commit() error

	// Rollback rolls back the transaction, a no-op after Commit
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	GameRepository() GameRepository
	BetRepository() BetRepository
	GroupRepository() GroupRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// BetService defines the interface for prediction operations
type BetService interface {
	// PlaceBet records a new prediction while the betting window is open
	PlaceBet(ctx context.Context, userID, gameID uuid.UUID, homeScore, awayScore int) (*models.Bet, error)

	// EditBet changes the prediction of a bet owned by the caller
	EditBet(ctx context.Context, userID, betID uuid.UUID, homeScore, awayScore int) (*models.Bet, error)

	// WithdrawBet deletes a bet owned by the caller
	WithdrawBet(ctx context.Context, userID, betID uuid.UUID) error

	// GetBettingStatus evaluates the betting window for a user and game
	GetBettingStatus(ctx context.Context, userID, gameID uuid.UUID) (*models.BettingStatus, error)

	GetBetsForGame(ctx context.Context, gameID uuid.UUID) ([]*models.Bet, error)
	GetBetsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Bet, error)

	// GetGroupBetsForGame returns the bets of a group's members on one game
	GetGroupBetsForGame(ctx context.Context, callerID, groupID, gameID uuid.UUID) ([]*models.Bet, error)
}

// SettlementEngine is the only component that changes users' total points
type SettlementEngine interface {
	// Settle scores every bet of a game within the caller's unit of work
	Settle(ctx context.Context, uow UnitOfWork, game *models.Game, homeScore, awayScore int) (*models.SettlementResult, error)

	// Retract removes every point a game's bets contributed, returning the applied deltas
	Retract(ctx context.Context, uow UnitOfWork, gameID uuid.UUID) (map[uuid.UUID]int64, error)
}

// GameService defines the interface for game administration
type GameService interface {
	CreateGame(ctx context.Context, adminID uuid.UUID, input models.CreateGameInput) (*models.Game, error)
	GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error)
	ListGames(ctx context.Context, filter models.GameFilter) ([]*models.Game, error)

	// SetGameLive closes betting on a scheduled game
	SetGameLive(ctx context.Context, adminID, gameID uuid.UUID) (*models.Game, error)

	// FinalizeGame records the final score and settles all bets, also used for corrections
	FinalizeGame(ctx context.Context, adminID, gameID uuid.UUID, homeScore, awayScore int) (*models.SettlementResult, error)

	// DeleteGame removes a game and its bets, retracting settled points first
	DeleteGame(ctx context.Context, adminID, gameID uuid.UUID) error
}

// LeaderboardService defines the interface for ranking users
type LeaderboardService interface {
	GetGlobalLeaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error)

	// GetGroupLeaderboard ranks the current members of a group, callable by members only
	GetGroupLeaderboard(ctx context.Context, callerID, groupID uuid.UUID) ([]*models.LeaderboardEntry, error)
}

// GroupService defines the interface for private leagues
type GroupService interface {
	CreateGroup(ctx context.Context, userID uuid.UUID, name string) (*models.Group, error)
	JoinGroup(ctx context.Context, userID uuid.UUID, inviteCode string) (*models.Group, error)
	LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error
	KickMember(ctx context.Context, adminID, groupID, targetID uuid.UUID) error
	RenameGroup(ctx context.Context, adminID, groupID uuid.UUID, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, adminID, groupID uuid.UUID) error
	GetGroup(ctx context.Context, callerID, groupID uuid.UUID) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)
}

// UserService defines the interface for account operations
type UserService interface {
	Register(ctx context.Context, username, email string) (*models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, adminID uuid.UUID) ([]*models.User, error)
	MakeAdmin(ctx context.Context, adminID, userID uuid.UUID) error

	// GrantAdminByEmail promotes a user without a caller check, for operator tooling
	GrantAdminByEmail(ctx context.Context, email string) (*models.User, error)

	// RenameUser changes a username and every snapshot of it
	RenameUser(ctx context.Context, userID uuid.UUID, username string) (*models.User, error)

	// DeleteAccount removes a user with their bets, memberships and administered groups
	DeleteAccount(ctx context.Context, userID uuid.UUID) error

	// DeleteUser removes another user with the same cascade, admin only
	DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error
}
