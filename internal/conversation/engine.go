// ABOUTME: ConversationEngine: the per-user state machine over lookup flows
// ABOUTME: Decides next session state and the response for every inbound event

package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/chembot/internal/catalog"
	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/format"
	"github.com/2389/chembot/internal/session"
	"github.com/2389/chembot/internal/token"
)

// Options tunes an Engine. Zero values take defaults.
type Options struct {
	// SimilarLimit bounds similar-compound results.
	SimilarLimit int

	// HistoryDisplay bounds the history view.
	HistoryDisplay int

	Logger *slog.Logger
}

// Engine is the conversation state machine. It is safe for concurrent use;
// events for one user are serialized, events for different users are not.
type Engine struct {
	lookup   compound.Service
	sessions *session.Store
	format   *format.Formatter
	catalog  *catalog.Catalog

	similarLimit   int
	historyDisplay int

	turns  turnLocks
	logger *slog.Logger
}

// New creates an engine.
func New(lookup compound.Service, sessions *session.Store, f *format.Formatter, cat *catalog.Catalog, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SimilarLimit <= 0 {
		opts.SimilarLimit = compound.DefaultSimilarLimit
	}
	if opts.HistoryDisplay <= 0 {
		opts.HistoryDisplay = session.DefaultHistoryDisplay
	}
	return &Engine{
		lookup:         lookup,
		sessions:       sessions,
		format:         f,
		catalog:        cat,
		similarLimit:   opts.SimilarLimit,
		historyDisplay: opts.HistoryDisplay,
		turns:          turnLocks{locks: make(map[string]*turnLock)},
		logger:         opts.Logger.With("component", "conversation"),
	}
}

// HandleEvent processes one event for userID and returns the response to show.
func (e *Engine) HandleEvent(ctx context.Context, userID string, ev Event) format.Response {
	unlock := e.turns.lock(userID)
	defer unlock()

	e.logger.Debug("handling event",
		"user_id", userID,
		"kind", ev.Kind,
		"token", ev.Token.String(),
		"state", e.sessions.State(userID))

	switch ev.Kind {
	case Cancel:
		return e.backToMenu(userID)
	case MenuSelect:
		return e.handleSelect(ctx, userID, ev.Token)
	case TextEntry:
		return e.handleText(ctx, userID, ev.Text)
	default:
		e.logger.Warn("ignoring event of unknown kind", "user_id", userID, "kind", ev.Kind)
		return e.format.MainMenu("")
	}
}

func (e *Engine) backToMenu(userID string) format.Response {
	e.sessions.SetConversationState(userID, session.Idle())
	return e.format.MainMenu("")
}

func (e *Engine) handleSelect(ctx context.Context, userID string, t token.Token) format.Response {
	// Flow-entering selections discard whatever flow was in progress
	if t.EntersFlow() {
		e.sessions.SetConversationState(userID, session.Idle())
	}

	switch t.Action {
	case token.BackToMenu:
		return e.format.MainMenu("")
	case token.Search:
		e.sessions.SetConversationState(userID, session.AwaitingSearchQuery())
		return e.format.SearchPrompt()
	case token.Compare:
		e.sessions.SetConversationState(userID, session.AwaitingFirstCompareTerm())
		return e.format.FirstComparePrompt()
	case token.Random:
		return e.random(ctx, userID)
	case token.SearchTerm:
		return e.lookupAndShow(ctx, userID, t.Arg, func(ctx context.Context) (compound.Record, error) {
			return e.lookup.ResolveByName(ctx, t.Arg)
		})
	case token.HistoryItem:
		return e.lookupAndShow(ctx, userID, t.ID.String(), func(ctx context.Context) (compound.Record, error) {
			return e.lookup.ResolveByID(ctx, t.ID)
		})
	case token.Examples:
		return e.format.Examples(e.catalog.Categories())
	case token.Category:
		cat, ok := e.catalog.Category(t.Arg)
		if !ok {
			return e.format.Examples(e.catalog.Categories())
		}
		return e.format.Category(cat)
	case token.History:
		return e.showHistory(ctx, userID)
	case token.Favorites:
		return e.showFavorites(ctx, userID)
	case token.Help:
		return e.format.Help()
	case token.Similar:
		return e.similar(ctx, userID, t.ID)
	case token.Save:
		return e.save(ctx, userID, t.ID)
	case token.Remove:
		return e.remove(ctx, userID, t.ID)
	default:
		e.logger.Warn("ignoring unknown selection", "user_id", userID, "action", t.Action)
		return e.format.MainMenu("")
	}
}

func (e *Engine) handleText(ctx context.Context, userID, text string) format.Response {
	term := strings.TrimSpace(text)
	state := e.sessions.State(userID)

	if term == "" {
		switch state.Stage() {
		case session.StageAwaitingSearchQuery:
			return e.format.SearchPrompt()
		case session.StageAwaitingFirstCompareTerm:
			return e.format.FirstComparePrompt()
		case session.StageAwaitingSecondCompareTerm:
			return e.format.SecondComparePrompt()
		default:
			return e.format.MainMenu("")
		}
	}

	switch state.Stage() {
	case session.StageAwaitingFirstCompareTerm:
		rec, err := e.resolveTerm(ctx, term)
		if err != nil {
			e.logLookupFailure(userID, "compare_first", term, err)
			return e.format.RetryPrompt(err)
		}
		e.sessions.SetConversationState(userID, session.AwaitingSecondCompareTerm(rec))
		return e.format.SecondComparePrompt()

	case session.StageAwaitingSecondCompareTerm:
		pending, _ := state.Pending()
		rec, err := e.resolveTerm(ctx, term)
		if err != nil {
			e.logLookupFailure(userID, "compare_second", term, err)
			return e.format.RetryPrompt(err)
		}
		e.sessions.SetConversationState(userID, session.Idle())
		return e.format.Comparison(pending, rec)

	default:
		// Idle text is an implicit search; AwaitingSearchQuery is an explicit one
		e.sessions.SetConversationState(userID, session.Idle())
		return e.lookupAndShow(ctx, userID, term, func(ctx context.Context) (compound.Record, error) {
			return e.resolveTerm(ctx, term)
		})
	}
}

// resolveTerm looks up a positive integer as an identifier and anything
// else as a name.
func (e *Engine) resolveTerm(ctx context.Context, term string) (compound.Record, error) {
	if id, err := compound.ParseCID(term); err == nil {
		return e.lookup.ResolveByID(ctx, id)
	}
	return e.lookup.ResolveByName(ctx, term)
}

// lookupAndShow runs a lookup, records it in history, and renders the card.
func (e *Engine) lookupAndShow(ctx context.Context, userID, term string, fetch func(context.Context) (compound.Record, error)) format.Response {
	rec, err := fetch(ctx)
	if err != nil {
		e.logLookupFailure(userID, "lookup", term, err)
		return e.format.LookupFailed(term, err)
	}
	return e.showRecord(ctx, userID, rec)
}

func (e *Engine) random(ctx context.Context, userID string) format.Response {
	rec, err := e.lookup.Random(ctx)
	if err != nil {
		e.logLookupFailure(userID, "random", "", err)
		return e.format.RandomFailed()
	}
	return e.showRecord(ctx, userID, rec)
}

func (e *Engine) showRecord(ctx context.Context, userID string, rec compound.Record) format.Response {
	err := e.sessions.AppendHistory(ctx, userID, session.HistoryEntry{ID: rec.ID, DisplayName: rec.DisplayName})
	if err != nil {
		e.logger.Error("recording history failed", "user_id", userID, "cid", rec.ID, "error", err)
		return e.format.Unavailable()
	}
	return e.format.Compound(rec)
}

func (e *Engine) showHistory(ctx context.Context, userID string) format.Response {
	entries, err := e.sessions.RecentHistory(ctx, userID, e.historyDisplay)
	if err != nil {
		e.logger.Error("reading history failed", "user_id", userID, "error", err)
		return e.format.Unavailable()
	}
	items := make([]format.Item, 0, len(entries))
	for _, h := range entries {
		items = append(items, format.Item{ID: h.ID, Name: h.DisplayName})
	}
	return e.format.History(items)
}

func (e *Engine) favoriteItems(ctx context.Context, userID string) ([]format.Item, error) {
	favs, err := e.sessions.Favorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]format.Item, 0, len(favs))
	for _, f := range favs {
		items = append(items, format.Item{ID: f.ID, Name: f.DisplayName})
	}
	return items, nil
}

func (e *Engine) showFavorites(ctx context.Context, userID string) format.Response {
	items, err := e.favoriteItems(ctx, userID)
	if err != nil {
		e.logger.Error("reading favorites failed", "user_id", userID, "error", err)
		return e.format.Unavailable()
	}
	return e.format.Favorites(items)
}

func (e *Engine) similar(ctx context.Context, userID string, id compound.CID) format.Response {
	ids, err := e.lookup.Similar(ctx, id, e.similarLimit)
	if err != nil {
		e.logLookupFailure(userID, "similar", id.String(), err)
		if compound.KindOf(err) == compound.ErrNotFound {
			return e.format.Similar(id, nil)
		}
		return e.format.Unavailable()
	}
	return e.format.Similar(id, ids)
}

// save stores id as a favorite under the name the user last saw it by,
// resolving it when it is not in their history.
func (e *Engine) save(ctx context.Context, userID string, id compound.CID) format.Response {
	name, ok, err := e.sessions.HistoryName(ctx, userID, id)
	if err != nil {
		e.logger.Error("reading history failed", "user_id", userID, "error", err)
		return e.format.Unavailable()
	}
	if !ok {
		rec, err := e.lookup.ResolveByID(ctx, id)
		if err != nil {
			e.logLookupFailure(userID, "save", id.String(), err)
			return e.format.LookupFailed(id.String(), err)
		}
		name = rec.DisplayName
	}

	if err := e.sessions.AddFavorite(ctx, userID, id, name); err != nil {
		e.logger.Error("saving favorite failed", "user_id", userID, "cid", id, "error", err)
		return e.format.Unavailable()
	}
	e.logger.Info("favorite saved", "user_id", userID, "cid", id)
	return e.format.Saved(name)
}

func (e *Engine) remove(ctx context.Context, userID string, id compound.CID) format.Response {
	name, ok, err := e.sessions.RemoveFavorite(ctx, userID, id)
	if err != nil {
		e.logger.Error("removing favorite failed", "user_id", userID, "cid", id, "error", err)
		return e.format.Unavailable()
	}

	items, err := e.favoriteItems(ctx, userID)
	if err != nil {
		e.logger.Error("reading favorites failed", "user_id", userID, "error", err)
		return e.format.Unavailable()
	}
	if !ok {
		return e.format.NotInFavorites(items)
	}
	return e.format.Removed(name, items)
}

func (e *Engine) logLookupFailure(userID, op, term string, err error) {
	e.logger.Warn("lookup failed",
		"user_id", userID,
		"op", op,
		"term", term,
		"kind", compound.KindOf(err),
		"error", err)
}

// turnLocks hands out one mutex per user, dropping it once nobody holds or waits on it.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func (t *turnLocks) lock(userID string) (unlock func()) {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &turnLock{}
		t.locks[userID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, userID)
		}
		t.mu.Unlock()
	}
}
