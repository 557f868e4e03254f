package engine

import (
	"testing"

	"resumelens/internal/types"
)

func TestApplyTransition(t *testing.T) {
	proposed := types.SuggestionState{Status: types.StatusProposed}
	adopted := types.SuggestionState{Status: types.StatusAdopted}
	ignored := types.SuggestionState{Status: types.StatusIgnored}
	modified := types.SuggestionState{Status: types.StatusModified, ModifiedText: "new text"}

	tests := []struct {
		name         string
		state        types.SuggestionState
		op           lifecycleOp
		modifiedText string
		wantStatus   types.SuggestionStatus
		wantText     string
		wantChanged  bool
	}{
		{"adopt proposed", proposed, opAdopt, "", types.StatusAdopted, "", true},
		{"adopt adopted is idempotent", adopted, opAdopt, "", types.StatusAdopted, "", false},
		{"adopt clears ignored", ignored, opAdopt, "", types.StatusAdopted, "", true},
		{"ignore proposed", proposed, opIgnore, "", types.StatusIgnored, "", true},
		{"ignore ignored is idempotent", ignored, opIgnore, "", types.StatusIgnored, "", false},
		{"ignore clears adopted", adopted, opIgnore, "", types.StatusIgnored, "", true},
		{"modify proposed", proposed, opModify, "custom", types.StatusModified, "custom", true},
		{"modify with same text is idempotent", modified, opModify, "new text", types.StatusModified, "new text", false},
		{"modify with different text", modified, opModify, "other", types.StatusModified, "other", true},
		{"adopt discards modified text", modified, opAdopt, "", types.StatusAdopted, "", true},
		{"ignore discards modified text", modified, opIgnore, "", types.StatusIgnored, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed := applyTransition(tt.state, tt.op, tt.modifiedText)
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if next.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", next.Status, tt.wantStatus)
			}
			if next.ModifiedText != tt.wantText {
				t.Errorf("ModifiedText = %q, want %q", next.ModifiedText, tt.wantText)
			}
		})
	}
}

func TestLifecycleExclusivity(t *testing.T) {
	// A suggestion can never be adopted and ignored at once: each state holds
	// exactly one status, and entering either clears the other
	state := types.SuggestionState{Status: types.StatusProposed}

	state, _ = applyTransition(state, opAdopt, "")
	if state.Status != types.StatusAdopted {
		t.Fatalf("Status = %s, want adopted", state.Status)
	}

	state, changed := applyTransition(state, opIgnore, "")
	if !changed || state.Status != types.StatusIgnored {
		t.Fatalf("Status = %s after ignore, want ignored", state.Status)
	}

	state, changed = applyTransition(state, opAdopt, "")
	if !changed || state.Status != types.StatusAdopted {
		t.Fatalf("Status = %s after re-adopt, want adopted", state.Status)
	}
}
