// Package token is the wire contract between transports and the
// conversation engine. Parse rejects anything outside the vocabulary, so
// the engine only ever switches over known actions.
package token
