// Package session implements the per-user session store.
//
// Each user gets a session the first time they are seen. A session holds
// the current ConversationState, the full lookup history and the favorites
// set. Operations on one user are linearizable; different users never
// contend beyond a brief map lookup.
//
// When an Archive is configured, history and favorites are loaded from it
// on first use and written through on every change. Conversation state
// stays in memory only.
package session
