// ABOUTME: ConversationState: the closed set of flow stages a user can be in
// ABOUTME: AwaitingSecondCompareTerm carries the pending compound record directly

package session

import "github.com/2389/chembot/internal/compound"

// Stage names a conversation flow stage.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingSearchQuery
	StageAwaitingFirstCompareTerm
	StageAwaitingSecondCompareTerm
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingSearchQuery:
		return "awaiting_search_query"
	case StageAwaitingFirstCompareTerm:
		return "awaiting_first_compare_term"
	case StageAwaitingSecondCompareTerm:
		return "awaiting_second_compare_term"
	default:
		return "unknown"
	}
}

// ConversationState is one of the four flow states. The zero value is Idle.
type ConversationState struct {
	stage   Stage
	pending compound.Record
}

// Idle is the resting state.
func Idle() ConversationState {
	return ConversationState{}
}

// AwaitingSearchQuery waits for a term to look up.
func AwaitingSearchQuery() ConversationState {
	return ConversationState{stage: StageAwaitingSearchQuery}
}

// AwaitingFirstCompareTerm waits for the first compound of a comparison.
func AwaitingFirstCompareTerm() ConversationState {
	return ConversationState{stage: StageAwaitingFirstCompareTerm}
}

// AwaitingSecondCompareTerm waits for the second compound, holding the first.
func AwaitingSecondCompareTerm(pending compound.Record) ConversationState {
	return ConversationState{stage: StageAwaitingSecondCompareTerm, pending: pending}
}

// Stage returns the flow stage.
func (s ConversationState) Stage() Stage {
	return s.stage
}

// Pending returns the first compound of an in-progress comparison.
func (s ConversationState) Pending() (compound.Record, bool) {
	if s.stage != StageAwaitingSecondCompareTerm {
		return compound.Record{}, false
	}
	return s.pending, true
}

func (s ConversationState) String() string {
	return s.stage.String()
}
