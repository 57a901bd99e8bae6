// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu        sync.RWMutex
	history   map[string][]*HistoryEntry     // keyed by userID, chronological
	favorites map[string]map[int64]*Favorite // keyed by userID, then cid
	err       error                          // returned by every call when set
	loads     map[string]int                 // GetHistory calls per user
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		history:   make(map[string][]*HistoryEntry),
		favorites: make(map[string]map[int64]*Favorite),
		loads:     make(map[string]int),
	}
}

// SetError makes every subsequent call fail with err. Pass nil to clear.
func (m *MockStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// HistoryLoads returns how many times GetHistory was called for userID.
func (m *MockStore) HistoryLoads(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads[userID]
}

// AppendHistory stores a copy of entry.
func (m *MockStore) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	// Make a copy to avoid external modification
	e := *entry
	m.history[e.UserID] = append(m.history[e.UserID], &e)
	return nil
}

// GetHistory returns copies of the most recent `limit` entries, oldest first.
func (m *MockStore) GetHistory(ctx context.Context, userID string, limit int) ([]*HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[userID]++
	if m.err != nil {
		return nil, m.err
	}

	all := m.history[userID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	result := make([]*HistoryEntry, 0, len(all))
	for _, e := range all {
		c := *e
		result = append(result, &c)
	}
	return result, nil
}

// PutFavorite inserts or replaces a favorite.
func (m *MockStore) PutFavorite(ctx context.Context, fav *Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now()
	}

	byCID, ok := m.favorites[fav.UserID]
	if !ok {
		byCID = make(map[int64]*Favorite)
		m.favorites[fav.UserID] = byCID
	}
	f := *fav
	byCID[f.CID] = &f
	return nil
}

// DeleteFavorite removes a favorite or returns ErrNotFound.
func (m *MockStore) DeleteFavorite(ctx context.Context, userID string, cid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.favorites[userID][cid]; !ok {
		return ErrNotFound
	}
	delete(m.favorites[userID], cid)
	return nil
}

// ListFavorites returns copies ordered by display name, then cid.
func (m *MockStore) ListFavorites(ctx context.Context, userID string) ([]*Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	result := make([]*Favorite, 0, len(m.favorites[userID]))
	for _, f := range m.favorites[userID] {
		c := *f
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *Favorite) int {
		return cmp.Or(cmp.Compare(a.DisplayName, b.DisplayName), cmp.Compare(a.CID, b.CID))
	})
	return result, nil
}

// CountUsers returns the number of users with history or favorites.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return 0, m.err
	}

	users := make(map[string]struct{})
	for u, h := range m.history {
		if len(h) > 0 {
			users[u] = struct{}{}
		}
	}
	for u, f := range m.favorites {
		if len(f) > 0 {
			users[u] = struct{}{}
		}
	}
	return len(users), nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
