// Package bridge holds the pieces every chat transport shares.
//
// Chat networks without native buttons get the engine's choices as a
// numbered list. A user answers with the command prefix followed by either
// the option number ("!2") or a raw action ("!history_2244"). The last list
// shown to each user is remembered for a while so numbers stay meaningful
// across messages.
//
// Responses are rendered to markdown for plain bodies and to HTML with
// goldmark for rich clients. Compound depictions are downloaded by
// ImageFetcher so transports can upload them.
package bridge
