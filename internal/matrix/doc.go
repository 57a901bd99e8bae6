// Package matrix connects the conversation engine to Matrix rooms.
//
// The transport logs in with a password, joins rooms it is invited to and
// turns each text message into a conversation event via the bridge
// package. Replies are sent as HTML messages; compound cards carry their
// depiction as an m.image upload with the card as caption.
package matrix
