package engine

import "resumelens/internal/types"

// lifecycleOp is one of the three user intents on a suggestion.
type lifecycleOp int

const (
	opAdopt lifecycleOp = iota
	opIgnore
	opModify
)

// applyTransition computes the next lifecycle state for a suggestion.
// Transitions are idempotent: re-applying the current status (with the same
// modified text) changes nothing and reports changed=false. There is no
// transition back to proposed; only a reanalysis discards lifecycle state.
//
// adopted and ignored are mutually exclusive: entering one clears the other.
// ModifiedText survives only while the status is modified.
func applyTransition(state types.SuggestionState, op lifecycleOp, modifiedText string) (next types.SuggestionState, changed bool) {
	next = state
	switch op {
	case opAdopt:
		if state.Status == types.StatusAdopted {
			return state, false
		}
		next.Status = types.StatusAdopted
		next.ModifiedText = ""
	case opIgnore:
		if state.Status == types.StatusIgnored {
			return state, false
		}
		next.Status = types.StatusIgnored
		next.ModifiedText = ""
	case opModify:
		if state.Status == types.StatusModified && state.ModifiedText == modifiedText {
			return state, false
		}
		next.Status = types.StatusModified
		next.ModifiedText = modifiedText
	}
	return next, true
}
