package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"resumelens/internal/errors"
	"resumelens/internal/types"
)

// Session owns one working document: the resume text being edited, the
// current AnalysisResult computed against it, and the lifecycle state of
// every suggestion. All mutation goes through the session's lock, so patch
// applications and direct edits never interleave.
//
// The bundled AnalysisResult is immutable; a reanalysis atomically replaces
// it with a new one and discards all lifecycle state, since suggestion ids
// do not survive across analyses.
type Session struct {
	id     string
	engine *Engine

	mu          sync.Mutex
	workingText string
	job         types.JobContext
	result      *types.AnalysisResult
	states      map[string]types.SuggestionState
	analyzing   bool

	onEvent func(types.LifecycleEvent)

	createdAt    time.Time
	lastActivity time.Time
}

// NewSession analyzes resumeText and opens a session around the result.
func (e *Engine) NewSession(ctx context.Context, resumeText string, job types.JobContext) (*Session, error) {
	result, err := e.Analyze(ctx, resumeText, job)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Session{
		id:           uuid.NewString(),
		engine:       e,
		workingText:  resumeText,
		job:          job,
		result:       result,
		states:       freshStates(result),
		createdAt:    now,
		lastActivity: now,
	}
	return s, nil
}

// freshStates creates a proposed lifecycle record for every suggestion.
func freshStates(result *types.AnalysisResult) map[string]types.SuggestionState {
	states := make(map[string]types.SuggestionState, len(result.Suggestions))
	for _, sg := range result.Suggestions {
		states[sg.ID] = types.SuggestionState{
			AnalysisID:   result.ID,
			SuggestionID: sg.ID,
			Status:       types.StatusProposed,
		}
	}
	return states
}

// SetEventHandler registers a callback invoked on every effective lifecycle
// transition. The callback runs synchronously under the session lock, so it
// must not call back into the session.
func (s *Session) SetEventHandler(fn func(types.LifecycleEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// WorkingText returns the current working document text.
func (s *Session) WorkingText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workingText
}

// SetWorkingText replaces the working document with a direct user edit.
// This is the single write path for edits outside the patch applier.
func (s *Session) SetWorkingText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingText = text
	s.lastActivity = time.Now().UTC()
}

// Result returns the session's current AnalysisResult.
func (s *Session) Result() *types.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Job returns the job context the session analyzes against.
func (s *Session) Job() types.JobContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// States returns a copy of all suggestion lifecycle states.
func (s *Session) States() map[string]types.SuggestionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := make(map[string]types.SuggestionState, len(s.states))
	for id, st := range s.states {
		states[id] = st
	}
	return states
}

// Analyzing reports whether a reanalysis is currently in flight.
func (s *Session) Analyzing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzing
}

// LastActivity returns when the session was last touched. The session store
// uses it for TTL eviction.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Adopt marks a suggestion adopted. Re-adopting is a no-op returning the
// same state. Unknown ids yield a typed not-found error, never a panic,
// since ids go stale after a reanalysis.
func (s *Session) Adopt(analysisID, suggestionID string) (types.SuggestionState, error) {
	return s.transition(analysisID, suggestionID, opAdopt, "")
}

// Ignore marks a suggestion ignored.
func (s *Session) Ignore(analysisID, suggestionID string) (types.SuggestionState, error) {
	return s.transition(analysisID, suggestionID, opIgnore, "")
}

// Modify records the user's replacement text for a suggestion.
func (s *Session) Modify(analysisID, suggestionID, newText string) (types.SuggestionState, error) {
	return s.transition(analysisID, suggestionID, opModify, newText)
}

func (s *Session) transition(analysisID, suggestionID string, op lifecycleOp, modifiedText string) (types.SuggestionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now().UTC()

	state, err := s.lookupState(analysisID, suggestionID)
	if err != nil {
		return types.SuggestionState{}, err
	}

	next, changed := applyTransition(state, op, modifiedText)
	if !changed {
		return state, nil
	}

	s.states[suggestionID] = next
	if s.onEvent != nil {
		s.onEvent(types.LifecycleEvent{
			SuggestionID: suggestionID,
			OldStatus:    state.Status,
			NewStatus:    next.Status,
		})
	}
	return next, nil
}

// lookupState resolves a suggestion state, distinguishing a stale analysis
// id from an unknown suggestion id. Caller holds the lock.
func (s *Session) lookupState(analysisID, suggestionID string) (types.SuggestionState, error) {
	if analysisID != s.result.ID {
		return types.SuggestionState{}, errors.NewNotFoundError(errors.ErrCodeAnalysisNotFound,
			fmt.Sprintf("analysis %s is not the session's current analysis", analysisID), nil).
			WithContext("analysis_id", analysisID)
	}
	state, ok := s.states[suggestionID]
	if !ok {
		return types.SuggestionState{}, errors.NewNotFoundError(errors.ErrCodeSuggestionNotFound,
			fmt.Sprintf("suggestion %s not found in analysis %s", suggestionID, analysisID), nil).
			WithContext("suggestion_id", suggestionID)
	}
	return state, nil
}

// ApplyToDocument applies a suggestion's patch to the working document and
// returns the updated text. Suggestions that are not adopted/modified leave
// the document untouched. A patch whose BeforeText no longer occurs fails
// with a patch error and the document stays unchanged.
func (s *Session) ApplyToDocument(analysisID, suggestionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now().UTC()

	state, err := s.lookupState(analysisID, suggestionID)
	if err != nil {
		return "", err
	}
	suggestion, ok := s.result.FindSuggestion(suggestionID)
	if !ok {
		return "", errors.NewNotFoundError(errors.ErrCodeSuggestionNotFound,
			fmt.Sprintf("suggestion %s not found in analysis %s", suggestionID, analysisID), nil)
	}

	newText, mutated, err := ApplyPatch(s.workingText, suggestion, state)
	if err != nil {
		return "", err
	}
	if mutated {
		s.workingText = newText
	}
	return s.workingText, nil
}

// Reanalyze re-runs analysis against the current working text. At most one
// analysis may be in flight per session; a second call while analyzing is
// rejected with a conflict error rather than cancelling the running one.
// On success the new result atomically replaces the old one and every prior
// lifecycle record is discarded. On failure the previous result stays
// current and the error is surfaced.
func (s *Session) Reanalyze(ctx context.Context) (*types.AnalysisResult, error) {
	s.mu.Lock()
	if s.analyzing {
		s.mu.Unlock()
		return nil, errors.NewConflictError(errors.ErrCodeAnalysisInProgress,
			"an analysis for this session is already in progress", nil).
			WithContext("session_id", s.id)
	}
	s.analyzing = true
	text := s.workingText
	job := s.job
	s.mu.Unlock()

	result, err := s.engine.Analyze(ctx, text, job)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = false
	s.lastActivity = time.Now().UTC()
	if err != nil {
		return nil, err
	}

	s.result = result
	s.states = freshStates(result)
	return result, nil
}
