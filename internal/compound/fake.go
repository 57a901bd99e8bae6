// ABOUTME: In-memory compound.Service implementation for tests
// ABOUTME: Serves canned records, counts calls, and injects failures per operation

package compound

import (
	"context"
	"strings"
	"sync"
)

// Fake is an in-memory Service. It is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	byName   map[string]Record
	byID     map[CID]Record
	similar  map[CID][]CID
	random   []Record
	randIdx  int
	failures map[string]error
	calls    map[string]int

	// Gate, when non-nil, is received from before every lookup completes.
	Gate chan struct{}
}

// Ensure Fake implements Service.
var _ Service = (*Fake)(nil)

// NewFake returns a Fake serving the given records by name and id. Each
// record is reachable by its lower-cased DisplayName.
func NewFake(records ...Record) *Fake {
	f := &Fake{
		byName:   make(map[string]Record),
		byID:     make(map[CID]Record),
		similar:  make(map[CID][]CID),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, r := range records {
		f.Add(r)
	}
	return f
}

// Add registers r by name and id.
func (f *Fake) Add(r Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byName[strings.ToLower(r.DisplayName)] = r
	f.byID[r.ID] = r
}

// SetSimilar configures the Similar result for id.
func (f *Fake) SetSimilar(id CID, ids ...CID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.similar[id] = ids
}

// SetRandom configures the records Random cycles through.
func (f *Fake) SetRandom(records ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.random = records
	f.randIdx = 0
}

// Fail makes every call to op return err until cleared with a nil err.
// Ops are "resolve_name", "resolve_id", "random" and "similar".
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) begin(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.failures[op]
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Unavailable(op, "", ctx.Err())
		}
	}
	return err
}

// ResolveByName implements Service.
func (f *Fake) ResolveByName(ctx context.Context, term string) (Record, error) {
	if err := f.begin(ctx, "resolve_name"); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byName[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return Record{}, NotFound("resolve_name", term)
	}
	r.DisplayName = strings.TrimSpace(term)
	return r, nil
}

// ResolveByID implements Service.
func (f *Fake) ResolveByID(ctx context.Context, id CID) (Record, error) {
	if err := f.begin(ctx, "resolve_id"); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return Record{}, NotFound("resolve_id", id.String())
	}
	return r, nil
}

// Random implements Service.
func (f *Fake) Random(ctx context.Context) (Record, error) {
	if err := f.begin(ctx, "random"); err != nil {
		return Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.random) == 0 {
		return Record{}, Unavailable("random", "", nil)
	}
	r := f.random[f.randIdx%len(f.random)]
	f.randIdx++
	return r, nil
}

// Similar implements Service.
func (f *Fake) Similar(ctx context.Context, id CID, limit int) ([]CID, error) {
	if err := f.begin(ctx, "similar"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.similar[id]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]CID, len(ids))
	copy(out, ids)
	return out, nil
}
