// Package format builds Response values: text with light markup (**bold**
// and `code` spans), an optional image reference, and a grid of choices.
// Nothing here touches the network or session state.
//
// User-facing strings come from a Messages table selected by locale.
// English and Russian are provided.
package format
