// ABOUTME: Tests for the session store
// ABOUTME: Covers lazy creation, history display order, favorites, archive write-through, and per-user isolation

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/store"
)

func TestGet_CreatesIdleSession(t *testing.T) {
	s := New(Options{})
	sess, err := s.Get(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, StageIdle, sess.State.Stage())
	assert.Empty(t, sess.History)
	assert.Empty(t, sess.Favorites)
	assert.Equal(t, 1, s.Len())
}

func TestGet_ReturnsCopies(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()
	require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: 1, DisplayName: "a"}))
	require.NoError(t, s.AddFavorite(ctx, "alice", 1, "a"))

	sess, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	sess.History[0].DisplayName = "mutated"
	sess.Favorites[2] = "b"

	again, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a", again.History[0].DisplayName)
	assert.Len(t, again.Favorites, 1)
}

func TestConversationState(t *testing.T) {
	s := New(Options{})
	aspirin := compound.Record{ID: 2244, DisplayName: "aspirin", Weight: compound.KnownWeight(180.16)}

	s.SetConversationState("alice", AwaitingSecondCompareTerm(aspirin))
	st := s.State("alice")
	assert.Equal(t, StageAwaitingSecondCompareTerm, st.Stage())
	pending, ok := st.Pending()
	require.True(t, ok)
	assert.Equal(t, aspirin, pending)

	s.SetConversationState("alice", Idle())
	_, ok = s.State("alice").Pending()
	assert.False(t, ok)
	assert.Equal(t, "idle", s.State("alice").String())
}

func TestRecentHistory_MostRecentFirstCappedAtFive(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: compound.CID(i), DisplayName: fmt.Sprint(i)}))
	}

	recent, err := s.RecentHistory(ctx, "alice", DefaultHistoryDisplay)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	ids := make([]compound.CID, len(recent))
	for i, e := range recent {
		ids[i] = e.ID
	}
	assert.Equal(t, []compound.CID{12, 11, 10, 9, 8}, ids)

	// Full history is retained internally
	sess, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, sess.History, 12)
}

func TestRecentHistory_FewerThanRequested(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()
	require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: 1, DisplayName: "a"}))

	recent, err := s.RecentHistory(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	empty, err := s.RecentHistory(ctx, "bob", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAppendHistory_Retention(t *testing.T) {
	s := New(Options{HistoryRetention: 3})
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: compound.CID(i)}))
	}
	sess, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sess.History, 3)
	assert.Equal(t, compound.CID(3), sess.History[0].ID)
}

func TestAppendHistory_StampsTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New(Options{Now: func() time.Time { return at }})
	ctx := context.Background()
	require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: 1}))

	recent, err := s.RecentHistory(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, at, recent[0].At)
}

func TestHistoryName(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()
	require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: 2244, DisplayName: "aspirin"}))
	require.NoError(t, s.AppendHistory(ctx, "alice", HistoryEntry{ID: 2244, DisplayName: "Aspirin"}))

	name, ok, err := s.HistoryName(ctx, "alice", 2244)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Aspirin", name)

	_, ok, err = s.HistoryName(ctx, "alice", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavorites_AddRemove(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()

	require.NoError(t, s.AddFavorite(ctx, "u", 2244, "Aspirin"))
	require.NoError(t, s.AddFavorite(ctx, "u", 2244, "Aspirin"))

	name, ok, err := s.RemoveFavorite(ctx, "u", 2244)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Aspirin", name)

	name, ok, err = s.RemoveFavorite(ctx, "u", 2244)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestFavorites_SortedByNameThenID(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()
	require.NoError(t, s.AddFavorite(ctx, "u", 2519, "caffeine"))
	require.NoError(t, s.AddFavorite(ctx, "u", 2244, "aspirin"))
	require.NoError(t, s.AddFavorite(ctx, "u", 1, "aspirin"))

	favs, err := s.Favorites(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []Favorite{
		{ID: 1, DisplayName: "aspirin"},
		{ID: 2244, DisplayName: "aspirin"},
		{ID: 2519, DisplayName: "caffeine"},
	}, favs)
}

func TestArchive_WriteThroughAndLazyLoad(t *testing.T) {
	archive := store.NewMockStore()
	ctx := context.Background()

	first := New(Options{Archive: archive})
	require.NoError(t, first.AppendHistory(ctx, "alice", HistoryEntry{ID: 2244, DisplayName: "aspirin"}))
	require.NoError(t, first.AddFavorite(ctx, "alice", 2244, "aspirin"))
	require.NoError(t, first.AddFavorite(ctx, "alice", 702, "ethanol"))
	_, _, err := first.RemoveFavorite(ctx, "alice", 702)
	require.NoError(t, err)
	first.SetConversationState("alice", AwaitingSearchQuery())

	// A fresh store over the same archive sees history and favorites but not flow state
	second := New(Options{Archive: archive})
	sess, err := second.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StageIdle, sess.State.Stage())
	require.Len(t, sess.History, 1)
	assert.Equal(t, "aspirin", sess.History[0].DisplayName)
	assert.Equal(t, map[compound.CID]string{2244: "aspirin"}, sess.Favorites)

	_, err = second.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, archive.HistoryLoads("alice"), "one load per store instance")
}

func TestArchive_FailureIsUnavailableAndLeavesMemoryUntouched(t *testing.T) {
	archive := store.NewMockStore()
	s := New(Options{Archive: archive})
	ctx := context.Background()
	require.NoError(t, s.AddFavorite(ctx, "alice", 2244, "aspirin"))

	archive.SetError(errors.New("database is locked"))

	err := s.AppendHistory(ctx, "alice", HistoryEntry{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, compound.ErrUnavailable)
	assert.Equal(t, compound.ErrUnavailable, compound.KindOf(err))

	_, ok, err := s.RemoveFavorite(ctx, "alice", 2244)
	require.Error(t, err)
	assert.False(t, ok)

	archive.SetError(nil)
	favs, err := s.Favorites(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, favs, 1, "failed removal must not drop the favorite")

	recent, err := s.RecentHistory(ctx, "alice", 5)
	require.NoError(t, err)
	assert.Empty(t, recent, "failed append must not be visible")
}

func TestArchive_FailedLoadIsRetried(t *testing.T) {
	archive := store.NewMockStore()
	require.NoError(t, archive.PutFavorite(context.Background(), &store.Favorite{UserID: "alice", CID: 1, DisplayName: "a"}))
	archive.SetError(errors.New("i/o error"))

	s := New(Options{Archive: archive})
	_, err := s.Get(context.Background(), "alice")
	require.Error(t, err)

	archive.SetError(nil)
	sess, err := s.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, sess.Favorites, 1)
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	s := New(Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", u)
			for i := 0; i < 50; i++ {
				_ = s.AppendHistory(ctx, user, HistoryEntry{ID: compound.CID(i + 1)})
				_ = s.AddFavorite(ctx, user, compound.CID(i+1), "x")
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
	for u := 0; u < 8; u++ {
		sess, err := s.Get(ctx, fmt.Sprintf("user-%d", u))
		require.NoError(t, err)
		assert.Len(t, sess.History, 50)
		assert.Len(t, sess.Favorites, 50)
	}
}
