// ABOUTME: Health and stats HTTP handlers
// ABOUTME: /health for liveness, /health/ready for transports, /stats for counters

package bot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Stats are the counters exposed at /stats.
type Stats struct {
	TrackedUsers  int             `json:"tracked_users"`
	ArchivedUsers *int            `json:"archived_users,omitempty"`
	CachedLookups int             `json:"cached_lookups"`
	ActiveQueues  int             `json:"active_queues"`
	OptionLists   int             `json:"option_lists"`
	Transports    map[string]bool `json:"transports"`
}

// Handler returns the health server's routes.
func (b *Bot) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", b.handleHealth)
	mux.HandleFunc("GET /health/ready", b.handleReady)
	mux.HandleFunc("GET /stats", b.handleStats)
	return mux
}

// handleHealth returns 200 OK if the server is running.
func (b *Bot) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once every transport is connected.
func (b *Bot) handleReady(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	transports := append([]Transport(nil), b.transports...)
	b.mu.Unlock()

	if len(transports) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no transports configured"))
		return
	}

	var waiting []string
	for _, t := range transports {
		if !t.Ready() {
			waiting = append(waiting, t.Name())
		}
	}
	if len(waiting) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "not ready: %s", strings.Join(waiting, ", "))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d transports)", len(transports))
}

func (b *Bot) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := Stats{
		TrackedUsers: b.sessions.Len(),
		ActiveQueues: b.dispatcher.Active(),
		OptionLists:  b.choices.Len(),
		Transports:   make(map[string]bool),
	}
	if b.cache != nil {
		stats.CachedLookups = b.cache.Len()
	}
	if b.archive != nil {
		n, err := b.archive.CountUsers(r.Context())
		if err != nil {
			b.logger.Error("counting archived users failed", "error", err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		stats.ArchivedUsers = &n
	}

	b.mu.Lock()
	for _, t := range b.transports {
		stats.Transports[t.Name()] = t.Ready()
	}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		b.logger.Error("encoding stats failed", "error", err)
	}
}
