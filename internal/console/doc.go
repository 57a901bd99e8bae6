// Package console is a terminal transport for a single local user. It
// speaks the same input grammar as the chat transports and prints
// responses with color.
package console
