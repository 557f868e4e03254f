package engine

import (
	"testing"

	"resumelens/internal/errors"
	"resumelens/internal/types"
)

func TestApplyPatch(t *testing.T) {
	patchSuggestion := types.Suggestion{
		ID:         "s1",
		BeforeText: "Managed projects.",
		AfterText:  "Managed 5+ projects.",
	}
	advisorySuggestion := types.Suggestion{ID: "s2"}

	tests := []struct {
		name        string
		text        string
		suggestion  types.Suggestion
		state       types.SuggestionState
		wantText    string
		wantMutated bool
		wantErrType errors.ErrorType
	}{
		{
			name:        "adopted patch replaces first occurrence",
			text:        "Intro\nManaged projects.\nManaged projects.",
			suggestion:  patchSuggestion,
			state:       types.SuggestionState{Status: types.StatusAdopted},
			wantText:    "Intro\nManaged 5+ projects.\nManaged projects.",
			wantMutated: true,
		},
		{
			name:       "adopted patch is case sensitive",
			text:       "managed projects.",
			suggestion: patchSuggestion,
			state:      types.SuggestionState{Status: types.StatusAdopted},
			// lowercase text does not match the exact BeforeText
			wantText:    "managed projects.",
			wantErrType: errors.ErrorTypePatch,
		},
		{
			name:        "adopted patch with absent before text",
			text:        "Completely different content.",
			suggestion:  patchSuggestion,
			state:       types.SuggestionState{Status: types.StatusAdopted},
			wantText:    "Completely different content.",
			wantErrType: errors.ErrorTypePatch,
		},
		{
			name:        "adopted advisory is a no-op",
			text:        "Some text.",
			suggestion:  advisorySuggestion,
			state:       types.SuggestionState{Status: types.StatusAdopted},
			wantText:    "Some text.",
			wantMutated: false,
		},
		{
			name:        "modified patch uses the modified text",
			text:        "Managed projects.",
			suggestion:  patchSuggestion,
			state:       types.SuggestionState{Status: types.StatusModified, ModifiedText: "Ran 12 projects."},
			wantText:    "Ran 12 projects.",
			wantMutated: true,
		},
		{
			name:        "modified advisory appends",
			text:        "Some text.",
			suggestion:  advisorySuggestion,
			state:       types.SuggestionState{Status: types.StatusModified, ModifiedText: "Extra line."},
			wantText:    "Some text.\nExtra line.",
			wantMutated: true,
		},
		{
			name:        "modified advisory with empty text is a no-op",
			text:        "Some text.",
			suggestion:  advisorySuggestion,
			state:       types.SuggestionState{Status: types.StatusModified},
			wantText:    "Some text.",
			wantMutated: false,
		},
		{
			name:        "proposed is a no-op",
			text:        "Managed projects.",
			suggestion:  patchSuggestion,
			state:       types.SuggestionState{Status: types.StatusProposed},
			wantText:    "Managed projects.",
			wantMutated: false,
		},
		{
			name:        "ignored is a no-op",
			text:        "Managed projects.",
			suggestion:  patchSuggestion,
			state:       types.SuggestionState{Status: types.StatusIgnored},
			wantText:    "Managed projects.",
			wantMutated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mutated, err := ApplyPatch(tt.text, tt.suggestion, tt.state)
			if tt.wantErrType != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.TypeOf(err) != tt.wantErrType {
					t.Errorf("error type = %s, want %s", errors.TypeOf(err), tt.wantErrType)
				}
				if got != tt.wantText {
					t.Errorf("text changed on failed patch: %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mutated != tt.wantMutated {
				t.Errorf("mutated = %v, want %v", mutated, tt.wantMutated)
			}
			if got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestApplyPatchIdempotentAfterApply(t *testing.T) {
	suggestion := types.Suggestion{
		ID:         "s1",
		BeforeText: "Managed projects.",
		AfterText:  "Managed 5+ projects.",
	}
	state := types.SuggestionState{Status: types.StatusAdopted}

	text, mutated, err := ApplyPatch("Managed projects.", suggestion, state)
	if err != nil || !mutated {
		t.Fatalf("first apply: mutated=%v err=%v", mutated, err)
	}

	// BeforeText is gone, so a second apply must fail cleanly rather than
	// touching the text again
	again, mutated, err := ApplyPatch(text, suggestion, state)
	if err == nil {
		t.Fatal("second apply succeeded, want patch error")
	}
	if mutated || again != text {
		t.Error("failed re-apply mutated the document")
	}
	if errors.TypeOf(err) != errors.ErrorTypePatch {
		t.Errorf("error type = %s, want patch", errors.TypeOf(err))
	}
}
