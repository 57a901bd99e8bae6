// Package conversation implements the per-user conversation state machine.
//
// # Overview
//
// The Engine sits between transports and the compound lookup service. It
// consumes one Event at a time for a user, reads and updates that user's
// session, calls the lookup service when needed, and returns a
// format.Response for the transport to render.
//
// # Events
//
//   - TextEntry: free text typed by the user
//   - MenuSelect: a parsed token.Token from a pressed option
//   - Cancel: return to the main menu from anywhere
//
// # Flows
//
// Four conversation states exist: Idle, AwaitingSearchQuery,
// AwaitingFirstCompareTerm and AwaitingSecondCompareTerm(pending).
//
//  1. search: prompt, then resolve the next text entry and return to Idle
//  2. compare: resolve a first term, stash it, resolve a second term, show
//     the comparison and return to Idle
//  3. random, search_<term>, history_<id>: one-shot lookups
//
// A failed lookup inside the compare flow re-prompts without leaving the
// current state. Elsewhere it returns to Idle with an error message.
//
// History, favorites, examples, similar, save, remove and help never change
// the conversation state.
//
// # Ordering
//
// HandleEvent holds a per-user turn lock for the whole event, so two events
// from one user never interleave. The Dispatcher adds a per-user FIFO queue
// in front of the engine so transports can submit without blocking and
// still get arrival-order processing.
package conversation
