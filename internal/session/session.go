// ABOUTME: In-memory session store with per-user locking and lazy archive loading
// ABOUTME: Implements get, state updates, history append/read, and favorite add/remove

package session

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/store"
)

// DefaultHistoryDisplay is how many entries a history view shows.
const DefaultHistoryDisplay = 5

// Archive is the durable backing for history and favorites.
// store.SQLiteStore and store.MockStore satisfy it.
type Archive interface {
	AppendHistory(ctx context.Context, entry *store.HistoryEntry) error
	GetHistory(ctx context.Context, userID string, limit int) ([]*store.HistoryEntry, error)
	PutFavorite(ctx context.Context, fav *store.Favorite) error
	DeleteFavorite(ctx context.Context, userID string, cid int64) error
	ListFavorites(ctx context.Context, userID string) ([]*store.Favorite, error)
}

// HistoryEntry is one successful lookup.
type HistoryEntry struct {
	ID          compound.CID
	DisplayName string
	At          time.Time
}

// Favorite is one saved compound.
type Favorite struct {
	ID          compound.CID
	DisplayName string
}

// Session is a point-in-time copy of one user's state.
type Session struct {
	State     ConversationState
	History   []HistoryEntry // chronological, oldest first
	Favorites map[compound.CID]string
}

// Options configures a Store.
type Options struct {
	// Archive, when set, persists history and favorites.
	Archive Archive

	// HistoryRetention caps retained history per user. Zero keeps everything.
	HistoryRetention int

	// Now overrides the clock for tests.
	Now func() time.Time

	Logger *slog.Logger
}

// userSession is the mutable per-user record. mu guards every field.
type userSession struct {
	mu        sync.Mutex
	loaded    bool
	state     ConversationState
	history   []HistoryEntry
	favorites map[compound.CID]string
}

// Store holds every user's session for the life of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*userSession

	archive   Archive
	retention int
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions:  make(map[string]*userSession),
		archive:   opts.Archive,
		retention: max(0, opts.HistoryRetention),
		now:       opts.Now,
		logger:    opts.Logger.With("component", "session"),
	}
}

// user returns the session for userID, creating it if needed.
func (s *Store) user(userID string) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[userID]
	if !ok {
		u = &userSession{favorites: make(map[compound.CID]string)}
		s.sessions[userID] = u
	}
	return u
}

// withUser runs fn with the user's lock held and archived data loaded.
func (s *Store) withUser(ctx context.Context, userID string, fn func(u *userSession) error) error {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := s.load(ctx, userID, u); err != nil {
		return err
	}
	return fn(u)
}

// load fills history and favorites from the archive once. A failed load
// is retried on the next call.
func (s *Store) load(ctx context.Context, userID string, u *userSession) error {
	if u.loaded || s.archive == nil {
		u.loaded = true
		return nil
	}

	entries, err := s.archive.GetHistory(ctx, userID, s.retention)
	if err != nil {
		return storageError("loading history", err)
	}
	favs, err := s.archive.ListFavorites(ctx, userID)
	if err != nil {
		return storageError("loading favorites", err)
	}

	history := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		history = append(history, HistoryEntry{ID: compound.CID(e.CID), DisplayName: e.DisplayName, At: e.CreatedAt})
	}
	// Anything recorded in memory before the load stays after the archived entries
	u.history = append(history, u.history...)
	for _, f := range favs {
		u.favorites[compound.CID(f.CID)] = f.DisplayName
	}
	u.loaded = true

	s.logger.Debug("loaded archived session", "user_id", userID, "history", len(entries), "favorites", len(favs))
	return nil
}

// storageError marks an archive failure as unavailable.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", compound.ErrUnavailable, op, err)
}

// Get returns a copy of the user's session, creating an Idle one if needed.
func (s *Store) Get(ctx context.Context, userID string) (Session, error) {
	var out Session
	err := s.withUser(ctx, userID, func(u *userSession) error {
		out = Session{
			State:     u.state,
			History:   slices.Clone(u.history),
			Favorites: make(map[compound.CID]string, len(u.favorites)),
		}
		for id, name := range u.favorites {
			out.Favorites[id] = name
		}
		return nil
	})
	return out, err
}

// State returns the user's conversation state. It never touches the archive.
func (s *Store) State(userID string) ConversationState {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// SetConversationState replaces the user's conversation state.
func (s *Store) SetConversationState(userID string, state ConversationState) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state.Stage() != state.Stage() {
		s.logger.Debug("state transition", "user_id", userID, "from", u.state, "to", state)
	}
	u.state = state
}

// AppendHistory records a lookup. The archive is written first, so a
// storage failure leaves memory unchanged.
func (s *Store) AppendHistory(ctx context.Context, userID string, entry HistoryEntry) error {
	if entry.At.IsZero() {
		entry.At = s.now()
	}
	return s.withUser(ctx, userID, func(u *userSession) error {
		if s.archive != nil {
			err := s.archive.AppendHistory(ctx, &store.HistoryEntry{
				UserID:      userID,
				CID:         int64(entry.ID),
				DisplayName: entry.DisplayName,
				CreatedAt:   entry.At,
			})
			if err != nil {
				return storageError("appending history", err)
			}
		}
		u.history = append(u.history, entry)
		if s.retention > 0 && len(u.history) > s.retention {
			u.history = slices.Delete(u.history, 0, len(u.history)-s.retention)
		}
		return nil
	})
}

// RecentHistory returns up to n entries, most recent first.
func (s *Store) RecentHistory(ctx context.Context, userID string, n int) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := s.withUser(ctx, userID, func(u *userSession) error {
		count := min(max(n, 0), len(u.history))
		out = make([]HistoryEntry, 0, count)
		for i := len(u.history) - 1; i >= len(u.history)-count; i-- {
			out = append(out, u.history[i])
		}
		return nil
	})
	return out, err
}

// HistoryName returns the display name of the most recent history entry for id.
func (s *Store) HistoryName(ctx context.Context, userID string, id compound.CID) (string, bool, error) {
	var name string
	var found bool
	err := s.withUser(ctx, userID, func(u *userSession) error {
		for i := len(u.history) - 1; i >= 0; i-- {
			if u.history[i].ID == id {
				name, found = u.history[i].DisplayName, true
				return nil
			}
		}
		return nil
	})
	return name, found, err
}

// AddFavorite saves id under name. Adding an existing favorite updates its name.
func (s *Store) AddFavorite(ctx context.Context, userID string, id compound.CID, name string) error {
	return s.withUser(ctx, userID, func(u *userSession) error {
		if existing, ok := u.favorites[id]; ok && existing == name {
			return nil
		}
		if s.archive != nil {
			err := s.archive.PutFavorite(ctx, &store.Favorite{
				UserID:      userID,
				CID:         int64(id),
				DisplayName: name,
				CreatedAt:   s.now(),
			})
			if err != nil {
				return storageError("saving favorite", err)
			}
		}
		u.favorites[id] = name
		return nil
	})
}

// RemoveFavorite deletes id and returns the name it was saved under.
// Removing an absent favorite reports ok=false without error.
func (s *Store) RemoveFavorite(ctx context.Context, userID string, id compound.CID) (name string, ok bool, err error) {
	err = s.withUser(ctx, userID, func(u *userSession) error {
		name, ok = u.favorites[id]
		if !ok {
			return nil
		}
		if s.archive != nil {
			if err := s.archive.DeleteFavorite(ctx, userID, int64(id)); err != nil && !errors.Is(err, store.ErrNotFound) {
				name, ok = "", false
				return storageError("deleting favorite", err)
			}
		}
		delete(u.favorites, id)
		return nil
	})
	return name, ok, err
}

// Favorites returns the user's favorites sorted by name, then id.
func (s *Store) Favorites(ctx context.Context, userID string) ([]Favorite, error) {
	var out []Favorite
	err := s.withUser(ctx, userID, func(u *userSession) error {
		out = make([]Favorite, 0, len(u.favorites))
		for id, name := range u.favorites {
			out = append(out, Favorite{ID: id, DisplayName: name})
		}
		return nil
	})
	slices.SortFunc(out, func(a, b Favorite) int {
		return cmp.Or(cmp.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.ID, b.ID))
	})
	return out, err
}

// Len returns how many users have a session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
