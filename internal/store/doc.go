// Package store persists per-user search history and favorites in SQLite.
//
// # Architecture
//
// Store is the interface the session layer writes through to. Two
// implementations are provided:
//
//   - SQLiteStore: modernc.org/sqlite, WAL mode, schema created on open
//   - MockStore: in-memory, for tests
//
// Conversation flow state is never stored here; only history entries and
// favorites outlive a restart.
//
// # Data Models
//
//   - HistoryEntry: one successful lookup (user, compound id, display name, time)
//   - Favorite: one saved compound per (user, compound id)
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// Timestamps are stored as RFC3339Nano text in UTC. History rows are
// ordered by created_at with rowid as the tiebreaker.
//
// # Error Handling
//
//   - ErrNotFound: the favorite to delete does not exist
//
// All methods accept context.Context for cancellation support.
package store
