// ABOUTME: Store interface and data types for chembot persistence
// ABOUTME: Defines HistoryEntry and Favorite and the Store interface for history/favorites archiving

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// HistoryEntry is one successful lookup made by a user
type HistoryEntry struct {
	ID          string // uuid, assigned by the store when empty
	UserID      string
	CID         int64
	DisplayName string
	CreatedAt   time.Time
}

// Favorite is a compound a user saved
type Favorite struct {
	UserID      string
	CID         int64
	DisplayName string
	CreatedAt   time.Time
}

// Store archives history and favorites per user.
type Store interface {
	// AppendHistory records a lookup. Entries are never updated.
	AppendHistory(ctx context.Context, entry *HistoryEntry) error

	// GetHistory returns a user's most recent `limit` entries in
	// chronological order (oldest first). limit <= 0 returns everything.
	GetHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error)

	// PutFavorite inserts or replaces a favorite.
	PutFavorite(ctx context.Context, fav *Favorite) error

	// DeleteFavorite removes a favorite, returning ErrNotFound if absent.
	DeleteFavorite(ctx context.Context, userID string, cid int64) error

	// ListFavorites returns a user's favorites ordered by display name, then cid.
	ListFavorites(ctx context.Context, userID string) ([]*Favorite, error)

	// CountUsers returns how many distinct users have any archived data.
	CountUsers(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}
