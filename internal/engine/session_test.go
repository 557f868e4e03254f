package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"resumelens/internal/errors"
	"resumelens/internal/scorer"
	"resumelens/internal/types"
)

func newTestSession(t *testing.T, text string, job types.JobContext) *Session {
	t.Helper()
	e := newTestEngine(t)
	sess, err := e.NewSession(context.Background(), text, job)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestSessionLifecycleTransitions(t *testing.T) {
	sess := newTestSession(t, "Managed projects.", types.JobContext{Keywords: []string{"React"}})
	result := sess.Result()
	if len(result.Suggestions) == 0 {
		t.Fatal("expected suggestions")
	}
	sgID := result.Suggestions[0].ID

	var events []types.LifecycleEvent
	sess.SetEventHandler(func(ev types.LifecycleEvent) {
		events = append(events, ev)
	})

	state, err := sess.Adopt(result.ID, sgID)
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if state.Status != types.StatusAdopted {
		t.Errorf("Status = %s, want adopted", state.Status)
	}

	// Idempotent re-adopt: same state back, no event
	state, err = sess.Adopt(result.ID, sgID)
	if err != nil {
		t.Fatalf("re-Adopt: %v", err)
	}
	if state.Status != types.StatusAdopted {
		t.Errorf("Status after re-adopt = %s, want adopted", state.Status)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events after idempotent re-adopt, want 1", len(events))
	}

	state, err = sess.Ignore(result.ID, sgID)
	if err != nil {
		t.Fatalf("Ignore: %v", err)
	}
	if state.Status != types.StatusIgnored {
		t.Errorf("Status = %s, want ignored", state.Status)
	}

	state, err = sess.Modify(result.ID, sgID, "My own wording with 25% growth.")
	if err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if state.Status != types.StatusModified {
		t.Errorf("Status = %s, want modified", state.Status)
	}
	if state.ModifiedText != "My own wording with 25% growth." {
		t.Errorf("ModifiedText = %q, stored text must match exactly", state.ModifiedText)
	}

	want := []struct{ old, new types.SuggestionStatus }{
		{types.StatusProposed, types.StatusAdopted},
		{types.StatusAdopted, types.StatusIgnored},
		{types.StatusIgnored, types.StatusModified},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		if events[i].OldStatus != w.old || events[i].NewStatus != w.new {
			t.Errorf("event %d = %s->%s, want %s->%s",
				i, events[i].OldStatus, events[i].NewStatus, w.old, w.new)
		}
		if events[i].SuggestionID != sgID {
			t.Errorf("event %d SuggestionID = %s, want %s", i, events[i].SuggestionID, sgID)
		}
	}
}

func TestSessionUnknownIDs(t *testing.T) {
	sess := newTestSession(t, "Managed projects.", types.JobContext{Keywords: []string{"React"}})
	result := sess.Result()

	tests := []struct {
		name         string
		analysisID   string
		suggestionID string
	}{
		{"stale analysis id", "not-the-current-analysis", result.Suggestions[0].ID},
		{"unknown suggestion id", result.ID, "no-such-suggestion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sess.Adopt(tt.analysisID, tt.suggestionID)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.TypeOf(err) != errors.ErrorTypeNotFound {
				t.Errorf("error type = %s, want notfound", errors.TypeOf(err))
			}
		})
	}
}

func TestSessionEndToEnd(t *testing.T) {
	job := types.JobContext{Keywords: []string{"React", "Leadership"}}
	sess := newTestSession(t, "Managed projects.", job)
	result := sess.Result()

	// Both keywords are absent from the resume
	if len(result.KeywordAnalysis.MissingKeywords) != 2 {
		t.Fatalf("MissingKeywords = %+v, want React and Leadership", result.KeywordAnalysis.MissingKeywords)
	}
	if result.KeywordAnalysis.Score != 0 {
		t.Errorf("keyword Score = %d, want 0", result.KeywordAnalysis.Score)
	}

	// The top suggestion patches the lone achievement line to mention React
	top := result.Suggestions[0]
	if top.Type != types.SuggestionTypeKeyword {
		t.Fatalf("top suggestion Type = %s, want keyword", top.Type)
	}
	if top.BeforeText != "Managed projects." {
		t.Fatalf("BeforeText = %q, want %q", top.BeforeText, "Managed projects.")
	}
	if !strings.Contains(top.AfterText, "React") || !scorer.HasQuantifier(top.AfterText) {
		t.Fatalf("AfterText = %q, want React plus a quantifier", top.AfterText)
	}

	if _, err := sess.Adopt(result.ID, top.ID); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	text, err := sess.ApplyToDocument(result.ID, top.ID)
	if err != nil {
		t.Fatalf("ApplyToDocument: %v", err)
	}
	if !strings.Contains(text, "React") {
		t.Fatalf("working text after patch = %q, want React mentioned", text)
	}
	if sess.WorkingText() != text {
		t.Error("ApplyToDocument return value disagrees with WorkingText")
	}

	second, err := sess.Reanalyze(context.Background())
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if second.KeywordAnalysis.Score <= result.KeywordAnalysis.Score {
		t.Errorf("keyword Score after patch = %d, want above %d",
			second.KeywordAnalysis.Score, result.KeywordAnalysis.Score)
	}
	var matchedReact bool
	for _, m := range second.KeywordAnalysis.MatchedKeywords {
		if m.Keyword == "React" {
			matchedReact = true
		}
	}
	if !matchedReact {
		t.Errorf("MatchedKeywords = %+v, want React matched", second.KeywordAnalysis.MatchedKeywords)
	}
}

func TestReanalyzeResetsLifecycleState(t *testing.T) {
	sess := newTestSession(t, "Managed projects.", types.JobContext{Keywords: []string{"React", "Leadership"}})
	first := sess.Result()

	if _, err := sess.Adopt(first.ID, first.Suggestions[0].ID); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if _, err := sess.Ignore(first.ID, first.Suggestions[1].ID); err != nil {
		t.Fatalf("Ignore: %v", err)
	}

	second, err := sess.Reanalyze(context.Background())
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if second.ID == first.ID {
		t.Error("reanalysis did not produce a fresh analysis id")
	}
	if sess.Result() != second {
		t.Error("session result not replaced by the new analysis")
	}

	for id, state := range sess.States() {
		if state.Status != types.StatusProposed {
			t.Errorf("suggestion %s carried status %s across reanalysis, want proposed", id, state.Status)
		}
		if state.AnalysisID != second.ID {
			t.Errorf("suggestion %s bound to analysis %s, want %s", id, state.AnalysisID, second.ID)
		}
	}

	// Ids from the previous analysis are gone
	if _, err := sess.Adopt(first.ID, first.Suggestions[0].ID); errors.TypeOf(err) != errors.ErrorTypeNotFound {
		t.Errorf("stale id error type = %s, want notfound", errors.TypeOf(err))
	}
}

func TestReanalyzeRejectsConcurrent(t *testing.T) {
	stub := newStubScorer()
	stub.grammarGate = make(chan struct{})
	e := New(stub, testScoringConfig(), nil)

	// Open the gate for the initial analysis only
	go func() { stub.grammarGate <- struct{}{} }()
	sess, err := e.NewSession(context.Background(), "Managed projects.", types.JobContext{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sess.Reanalyze(context.Background())
		done <- err
	}()

	// Wait for the reanalysis to be in flight, blocked on the gate
	deadline := time.Now().Add(2 * time.Second)
	for !sess.Analyzing() {
		if time.Now().After(deadline) {
			t.Fatal("reanalysis never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err = sess.Reanalyze(context.Background())
	if err == nil {
		t.Fatal("concurrent Reanalyze succeeded, want conflict error")
	}
	if errors.TypeOf(err) != errors.ErrorTypeConflict {
		t.Errorf("error type = %s, want conflict", errors.TypeOf(err))
	}

	stub.grammarGate <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("first Reanalyze: %v", err)
	}
	if sess.Analyzing() {
		t.Error("Analyzing still true after completion")
	}

	// A follow-up reanalysis is accepted once the first completes
	go func() { stub.grammarGate <- struct{}{} }()
	if _, err := sess.Reanalyze(context.Background()); err != nil {
		t.Fatalf("follow-up Reanalyze: %v", err)
	}
}

func TestReanalyzeFailureKeepsPreviousResult(t *testing.T) {
	stub := newStubScorer()
	e := New(stub, testScoringConfig(), nil)
	sess, err := e.NewSession(context.Background(), "Managed projects.", types.JobContext{Keywords: []string{"React"}})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	first := sess.Result()
	if _, err := sess.Adopt(first.ID, first.Suggestions[0].ID); err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	stub.grammarErr = stderrors.New("backend down")
	if _, err := sess.Reanalyze(context.Background()); err == nil {
		t.Fatal("expected reanalysis failure")
	}

	if sess.Result() != first {
		t.Error("failed reanalysis replaced the previous result")
	}
	state := sess.States()[first.Suggestions[0].ID]
	if state.Status != types.StatusAdopted {
		t.Errorf("lifecycle state lost on failed reanalysis: %s", state.Status)
	}
	if sess.Analyzing() {
		t.Error("Analyzing still true after failed reanalysis")
	}

	// Recovering the backend makes reanalysis work again
	stub.grammarErr = nil
	if _, err := sess.Reanalyze(context.Background()); err != nil {
		t.Fatalf("Reanalyze after recovery: %v", err)
	}
}

func TestSessionDirectEdit(t *testing.T) {
	sess := newTestSession(t, "Managed projects.", types.JobContext{Keywords: []string{"React"}})
	sess.SetWorkingText("Built React dashboards for 12 teams.")

	result, err := sess.Reanalyze(context.Background())
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if result.KeywordAnalysis.Score != 100 {
		t.Errorf("keyword Score = %d, want 100 after the edit mentions React", result.KeywordAnalysis.Score)
	}
}
