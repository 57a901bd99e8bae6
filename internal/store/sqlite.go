// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides history/favorites persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is its own database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS history (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			cid          INTEGER NOT NULL,
			display_name TEXT NOT NULL,
			created_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_user_created
			ON history(user_id, created_at);

		CREATE TABLE IF NOT EXISTS favorites (
			user_id      TEXT NOT NULL,
			cid          INTEGER NOT NULL,
			display_name TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			PRIMARY KEY (user_id, cid)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// AppendHistory inserts a history entry, assigning an ID and timestamp when unset.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO history (id, user_id, cid, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.CID,
		entry.DisplayName,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}

	s.logger.Debug("appended history", "user_id", entry.UserID, "cid", entry.CID)
	return nil
}

// GetHistory retrieves a user's history, limited to the most recent `limit` entries.
// Entries are returned in chronological order (oldest first).
// If limit is 0 or negative, all entries are returned.
func (s *SQLiteStore) GetHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error) {
	var query string
	var args []any

	if limit > 0 {
		// Take the N most recent, then flip back to ascending order
		query = `
			SELECT id, user_id, cid, display_name, created_at
			FROM (
				SELECT id, user_id, cid, display_name, created_at, rowid AS seq
				FROM history
				WHERE user_id = ?
				ORDER BY created_at DESC, seq DESC
				LIMIT ?
			)
			ORDER BY created_at ASC, seq ASC
		`
		args = []any{userID, limit}
	} else {
		query = `
			SELECT id, user_id, cid, display_name, created_at
			FROM history
			WHERE user_id = ?
			ORDER BY created_at ASC, rowid ASC
		`
		args = []any{userID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var createdAtStr string

		if err := rows.Scan(&e.ID, &e.UserID, &e.CID, &e.DisplayName, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}

		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing history created_at: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return entries, nil
}

// PutFavorite saves or updates a favorite.
// Uses INSERT OR REPLACE to handle both insert and update cases.
func (s *SQLiteStore) PutFavorite(ctx context.Context, fav *Favorite) error {
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO favorites (user_id, cid, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		fav.UserID,
		fav.CID,
		fav.DisplayName,
		fav.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving favorite: %w", err)
	}

	s.logger.Debug("saved favorite", "user_id", fav.UserID, "cid", fav.CID)
	return nil
}

// DeleteFavorite removes a favorite.
// Returns ErrNotFound if the favorite doesn't exist.
func (s *SQLiteStore) DeleteFavorite(ctx context.Context, userID string, cid int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND cid = ?`,
		userID, cid,
	)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted favorite", "user_id", userID, "cid", cid)
	return nil
}

// ListFavorites retrieves all favorites for a user ordered by display name, then cid.
func (s *SQLiteStore) ListFavorites(ctx context.Context, userID string) ([]*Favorite, error) {
	query := `
		SELECT user_id, cid, display_name, created_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY display_name ASC, cid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	var favs []*Favorite
	for rows.Next() {
		var f Favorite
		var createdAtStr string

		if err := rows.Scan(&f.UserID, &f.CID, &f.DisplayName, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning favorite row: %w", err)
		}

		f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing favorite created_at: %w", err)
		}

		favs = append(favs, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorite rows: %w", err)
	}

	return favs, nil
}

// CountUsers returns the number of distinct users across history and favorites.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT user_id FROM history
			UNION
			SELECT user_id FROM favorites
		)
	`

	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
