// Package persistence implements the Persistence Bridge (C11): narrow
// repository interfaces for users, game history, and user statistics,
// a retry-with-backoff wrapper, and a durable offline queue for writes
// that exhaust their retries. Grounded on the teacher's
// internal/storage package shape (one Store type backing every
// read/write the rest of the program needs), generalized here into
// interfaces so a dependency-free MemoryStore and a SQLite-backed
// store can both satisfy them.
package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned by UserRepository.Get when no user with
// the given id exists.
var ErrUserNotFound = errors.New("persistence: user not found")

// User is a registered account, resolved from a client's auth token at
// connection time. Guests (client ids carrying the "guest_" prefix)
// never resolve to a User and are skipped by the bridge entirely, per
// spec.md §4.7.
type User struct {
	ID          string
	DisplayName string
	CreatedAt   time.Time
}

// GameHistoryRecord is one completed match, written once per match per
// spec.md §6's game_history table.
type GameHistoryRecord struct {
	ID              int64
	Player1ID       string
	Player2ID       string
	Player1Score    int
	Player2Score    int
	WinnerID        string // empty means tie
	GameMode        string
	RoundsPlayed    int
	GameDurationMS  int64
	CreatedAt       time.Time
}

// UserStats is a user's aggregate record, per spec.md §6's user_stats
// table.
type UserStats struct {
	UserID            string
	TotalGames        int
	Wins              int
	Losses            int
	Cooperations      int
	Betrayals         int
	TotalScore        int
	WinRate           float64
	TrustScore        float64
	BetrayalRate      float64
	AverageScore      float64
	LongestWinStreak  int
	CurrentWinStreak  int
	GamesThisWeek     int
	GamesThisMonth    int
}

// UserRepository resolves persistent user identities. spec.md §1/§6
// keeps the concrete account store itself out of scope; this is the
// narrow contract the bridge depends on.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)
}

// GameHistoryRepository persists one row per completed match.
type GameHistoryRepository interface {
	Insert(ctx context.Context, rec GameHistoryRecord) (int64, error)
	ByUser(ctx context.Context, userID string, limit int) ([]GameHistoryRecord, error)
}

// UserStatsRepository persists and updates per-user aggregate stats.
type UserStatsRepository interface {
	Get(ctx context.Context, userID string) (*UserStats, error)
	ApplyDelta(ctx context.Context, delta StatsDelta) error
}

// StatsDelta is the per-match contribution the bridge applies to a
// user's running UserStats after a game-history write. Win streak and
// per-period counters are maintained by the repository implementation
// since they depend on stored prior state, not just this match.
type StatsDelta struct {
	UserID       string
	Won          bool
	Tied         bool
	Score        int
	Cooperations int
	Betrayals    int
	PlayedAt     time.Time
}

// Store bundles the three repositories a concrete backend provides.
type Store interface {
	Users() UserRepository
	GameHistory() GameHistoryRepository
	UserStats() UserStatsRepository
	Close() error
}

// OfflineRecord is one durably-stored offline-queue entry.
type OfflineRecord struct {
	ID      string
	Payload []byte
}

// OfflineQueueStore is implemented by a backend that can survive a
// restart with its offline queue intact (SQLiteStore, via its
// offline_queue table). A backend that doesn't implement it — like
// MemoryStore — keeps Bridge's offline queue purely process-lifetime.
type OfflineQueueStore interface {
	SaveOfflineWrite(ctx context.Context, id string, payload []byte) error
	DeleteOfflineWrite(ctx context.Context, id string) error
	LoadOfflineWrites(ctx context.Context) ([]OfflineRecord, error)
}
