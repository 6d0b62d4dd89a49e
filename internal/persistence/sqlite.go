package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteStore is a modernc.org/sqlite backed Store, directly adapted
// from the teacher's storage.Store: migration-on-open, database/sql,
// any-typed timestamp scanning tolerant of both time.Time and string
// representations depending on driver version.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates a database at dbPath, expanding a
// leading "~" and creating parent directories as needed, then runs
// migrations.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("persistence: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persistence: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: cannot connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS game_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player1_id TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			player1_score INTEGER NOT NULL,
			player2_score INTEGER NOT NULL,
			winner_id TEXT,
			game_mode TEXT NOT NULL,
			rounds_played INTEGER NOT NULL,
			game_duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_game_history_player1 ON game_history(player1_id);
		CREATE INDEX IF NOT EXISTS idx_game_history_player2 ON game_history(player2_id);

		CREATE TABLE IF NOT EXISTS user_stats (
			user_id TEXT PRIMARY KEY,
			total_games INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			cooperations INTEGER NOT NULL DEFAULT 0,
			betrayals INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			win_rate REAL NOT NULL DEFAULT 0,
			trust_score REAL NOT NULL DEFAULT 0,
			betrayal_rate REAL NOT NULL DEFAULT 0,
			average_score REAL NOT NULL DEFAULT 0,
			longest_win_streak INTEGER NOT NULL DEFAULT 0,
			current_win_streak INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS offline_queue (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Users() UserRepository              { return (*sqliteUsers)(s) }
func (s *SQLiteStore) GameHistory() GameHistoryRepository { return (*sqliteHistory)(s) }
func (s *SQLiteStore) UserStats() UserStatsRepository     { return (*sqliteStats)(s) }

type sqliteUsers SQLiteStore

func (s *sqliteUsers) Get(ctx context.Context, userID string) (*User, error) {
	var u User
	var createdAt any
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.DisplayName, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot query user: %w", err)
	}
	u.CreatedAt = parseTimestamp(createdAt)
	return &u, nil
}

type sqliteHistory SQLiteStore

func (s *sqliteHistory) Insert(ctx context.Context, rec GameHistoryRecord) (int64, error) {
	var winnerID sql.NullString
	if rec.WinnerID != "" {
		winnerID = sql.NullString{String: rec.WinnerID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_history
		 (player1_id, player2_id, player1_score, player2_score, winner_id, game_mode, rounds_played, game_duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Player1ID, rec.Player2ID, rec.Player1Score, rec.Player2Score,
		winnerID, rec.GameMode, rec.RoundsPlayed, rec.GameDurationMS,
	)
	if err != nil {
		return 0, fmt.Errorf("persistence: cannot insert game history: %w", err)
	}
	return res.LastInsertId()
}

func (s *sqliteHistory) ByUser(ctx context.Context, userID string, limit int) ([]GameHistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player1_id, player2_id, player1_score, player2_score, winner_id,
		        game_mode, rounds_played, game_duration_ms, created_at
		 FROM game_history
		 WHERE player1_id = ? OR player2_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot query game history: %w", err)
	}
	defer rows.Close()

	var out []GameHistoryRecord
	for rows.Next() {
		var r GameHistoryRecord
		var winnerID sql.NullString
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Player1ID, &r.Player2ID, &r.Player1Score, &r.Player2Score,
			&winnerID, &r.GameMode, &r.RoundsPlayed, &r.GameDurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("persistence: cannot scan game history row: %w", err)
		}
		if winnerID.Valid {
			r.WinnerID = winnerID.String
		}
		r.CreatedAt = parseTimestamp(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

type sqliteStats SQLiteStore

func (s *sqliteStats) Get(ctx context.Context, userID string) (*UserStats, error) {
	var st UserStats
	st.UserID = userID
	err := s.db.QueryRowContext(ctx,
		`SELECT total_games, wins, losses, cooperations, betrayals, total_score,
		        win_rate, trust_score, betrayal_rate, average_score,
		        longest_win_streak, current_win_streak
		 FROM user_stats WHERE user_id = ?`, userID,
	).Scan(&st.TotalGames, &st.Wins, &st.Losses, &st.Cooperations, &st.Betrayals, &st.TotalScore,
		&st.WinRate, &st.TrustScore, &st.BetrayalRate, &st.AverageScore,
		&st.LongestWinStreak, &st.CurrentWinStreak)
	if err == sql.ErrNoRows {
		return &st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot query user stats: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot begin stats read: %w", err)
	}
	defer tx.Rollback()
	if w, err := s.weeklyCount(ctx, tx, userID); err == nil {
		st.GamesThisWeek = w
	}
	if m, err := s.monthlyCount(ctx, tx, userID); err == nil {
		st.GamesThisMonth = m
	}
	return &st, nil
}

func (s *sqliteStats) ApplyDelta(ctx context.Context, d StatsDelta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: cannot begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	st := UserStats{UserID: d.UserID}
	err = tx.QueryRowContext(ctx,
		`SELECT total_games, wins, losses, cooperations, betrayals, total_score,
		        win_rate, trust_score, betrayal_rate, average_score,
		        longest_win_streak, current_win_streak
		 FROM user_stats WHERE user_id = ?`, d.UserID,
	).Scan(&st.TotalGames, &st.Wins, &st.Losses, &st.Cooperations, &st.Betrayals, &st.TotalScore,
		&st.WinRate, &st.TrustScore, &st.BetrayalRate, &st.AverageScore,
		&st.LongestWinStreak, &st.CurrentWinStreak)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("persistence: cannot load user stats: %w", err)
	}

	applyDelta(&st, d)
	if w, err := s.weeklyCount(ctx, tx, d.UserID); err == nil {
		st.GamesThisWeek = w
	}
	if m, err := s.monthlyCount(ctx, tx, d.UserID); err == nil {
		st.GamesThisMonth = m
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_stats
		 (user_id, total_games, wins, losses, cooperations, betrayals, total_score,
		  win_rate, trust_score, betrayal_rate, average_score, longest_win_streak, current_win_streak)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		  total_games = excluded.total_games, wins = excluded.wins, losses = excluded.losses,
		  cooperations = excluded.cooperations, betrayals = excluded.betrayals,
		  total_score = excluded.total_score, win_rate = excluded.win_rate,
		  trust_score = excluded.trust_score, betrayal_rate = excluded.betrayal_rate,
		  average_score = excluded.average_score, longest_win_streak = excluded.longest_win_streak,
		  current_win_streak = excluded.current_win_streak`,
		st.UserID, st.TotalGames, st.Wins, st.Losses, st.Cooperations, st.Betrayals, st.TotalScore,
		st.WinRate, st.TrustScore, st.BetrayalRate, st.AverageScore, st.LongestWinStreak, st.CurrentWinStreak,
	)
	if err != nil {
		return fmt.Errorf("persistence: cannot upsert user stats: %w", err)
	}
	return tx.Commit()
}

// weeklyCount and monthlyCount recompute rolling-window match counts
// straight from game_history, since user_stats itself doesn't retain
// per-match timestamps.
func (s *sqliteStats) weeklyCount(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	return s.windowCount(ctx, tx, userID, "-7 days")
}

func (s *sqliteStats) monthlyCount(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	return s.windowCount(ctx, tx, userID, "-1 month")
}

func (s *sqliteStats) windowCount(ctx context.Context, tx *sql.Tx, userID, window string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_history
		 WHERE (player1_id = ? OR player2_id = ?) AND created_at >= datetime('now', ?)`,
		userID, userID, window,
	).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SaveOfflineWrite persists one offline-queue entry so it survives a
// restart, implementing OfflineQueueStore.
func (s *SQLiteStore) SaveOfflineWrite(ctx context.Context, id string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offline_queue (id, payload) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		id, string(payload),
	)
	if err != nil {
		return fmt.Errorf("persistence: cannot save offline write: %w", err)
	}
	return nil
}

// DeleteOfflineWrite removes one offline-queue entry once it has been
// successfully replayed.
func (s *SQLiteStore) DeleteOfflineWrite(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("persistence: cannot delete offline write: %w", err)
	}
	return nil
}

// LoadOfflineWrites returns every offline-queue entry left over from
// before a restart, oldest first.
func (s *SQLiteStore) LoadOfflineWrites(ctx context.Context) ([]OfflineRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM offline_queue ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("persistence: cannot query offline queue: %w", err)
	}
	defer rows.Close()

	var out []OfflineRecord
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("persistence: cannot scan offline queue row: %w", err)
		}
		out = append(out, OfflineRecord{ID: id, Payload: []byte(payload)})
	}
	return out, rows.Err()
}

func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
