package engine

import (
	"fmt"
	"strings"

	"resumelens/internal/errors"
	"resumelens/internal/types"
)

// ApplyPatch splices a suggestion into workingText according to its
// lifecycle status and returns the new text plus whether a mutation
// occurred. It is a dumb, auditable text operation: it never looks past the
// patch fields, so callers can always diff before/after.
//
// Rules:
//   - adopted + literal patch: exact, case-sensitive, first-occurrence
//     replace of BeforeText with AfterText. A BeforeText that no longer
//     occurs verbatim fails with a patch error instead of fuzzy-matching,
//     since a fuzzy match could corrupt unrelated text.
//   - modified + literal patch: same replace, but with the user's
//     ModifiedText as the replacement.
//   - modified + advisory-only: ModifiedText is appended as a new line.
//   - anything else: no mutation.
func ApplyPatch(workingText string, suggestion types.Suggestion, state types.SuggestionState) (string, bool, error) {
	switch state.Status {
	case types.StatusAdopted:
		if !suggestion.HasPatch() {
			return workingText, false, nil
		}
		return replaceFirst(workingText, suggestion.BeforeText, suggestion.AfterText, suggestion.ID)

	case types.StatusModified:
		if suggestion.HasPatch() {
			return replaceFirst(workingText, suggestion.BeforeText, state.ModifiedText, suggestion.ID)
		}
		if state.ModifiedText == "" {
			return workingText, false, nil
		}
		return workingText + "\n" + state.ModifiedText, true, nil

	default:
		return workingText, false, nil
	}
}

// replaceFirst replaces the first exact occurrence of before with after.
func replaceFirst(text, before, after, suggestionID string) (string, bool, error) {
	idx := strings.Index(text, before)
	if idx < 0 {
		return text, false, errors.NewPatchError(errors.ErrCodePatchNotApplicable,
			fmt.Sprintf("patch text %q no longer occurs in the working document", before), nil).
			WithContext("suggestion_id", suggestionID)
	}
	return text[:idx] + after + text[idx+len(before):], true, nil
}
