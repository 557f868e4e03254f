package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"resumelens/internal/observability"
	"resumelens/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// AnalyzeRequest represents the request body for the one-shot analyze endpoint
type AnalyzeRequest struct {
	ResumeText     string   `json:"resumeText"`
	JobTitle       string   `json:"jobTitle,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
}

// validateResumeText checks the resume text of an incoming request
func (s *Server) validateResumeText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("resumeText field is required")
	}
	if s.MaxRequestSize > 0 && len(text) > int(s.MaxRequestSize) {
		return fmt.Errorf("resumeText exceeds size limit of %d bytes", s.MaxRequestSize)
	}
	return nil
}

// dimensionScores flattens a result's per-dimension scores for metric recording
func dimensionScores(result *types.AnalysisResult) map[string]int {
	return map[string]int{
		"keyword":      result.KeywordAnalysis.Score,
		"grammar":      result.GrammarCheck.Score,
		"format":       result.FormatAnalysis.Score,
		"quantitative": result.QuantitativeAnalysis.Score,
	}
}

// createAnalyzeHandler wraps the one-shot analyze handler with observability
func (s *Server) createAnalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.analyze")
		defer span.End()

		var req AnalyzeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.validateResumeText(req.ResumeText); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid resume text", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.Int("request.keywords", len(req.Keywords)),
			attribute.String("operation", "analyze"),
		)

		job := types.JobContext{
			Title:       req.JobTitle,
			Description: req.JobDescription,
			Keywords:    req.Keywords,
		}

		metrics := om.GetMetrics()
		var result *types.AnalysisResult
		err := metrics.TrackAnalysis(ctx, "analyze", func(ctx context.Context) error {
			var analyzeErr error
			result, analyzeErr = s.Engine.Analyze(ctx, req.ResumeText, job)
			return analyzeErr
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "analysis"))
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordSuggestionCount(ctx, len(result.Suggestions), om)
		metrics.RecordDimensionScores(ctx, dimensionScores(result), om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.overall_score", result.OverallScore),
			attribute.Int("response.suggestions", len(result.Suggestions)),
		)

		writeJSONResponse(w, http.StatusOK, result)
	}
}

// createSessionCreateHandler wraps the session creation handler with observability
func (s *Server) createSessionCreateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.session.create")
		defer span.End()

		var req CreateSessionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.validateResumeText(req.ResumeText); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid resume text", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_length", len(req.ResumeText)),
			attribute.Int("request.keywords", len(req.Keywords)),
			attribute.String("operation", "session_create"),
		)

		job := types.JobContext{
			Title:       req.JobTitle,
			Description: req.JobDescription,
			Keywords:    req.Keywords,
		}

		metrics := om.GetMetrics()
		sess, err := s.Engine.NewSession(ctx, req.ResumeText, job)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "analysis"))
			metrics.RecordBusinessMetric(ctx, "session_created", false, om)
			writeAppError(w, s.Logger, err)
			return
		}

		if err := s.Sessions.Put(sess); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "capacity"))
			metrics.RecordBusinessMetric(ctx, "session_created", false, om)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "session_created", true, om,
			attribute.Int("analysis.overall_score", sess.Result().OverallScore))
		metrics.RecordSuggestionCount(ctx, len(sess.Result().Suggestions), om)
		metrics.RecordDimensionScores(ctx, dimensionScores(sess.Result()), om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("session.id", sess.ID()),
		)

		writeJSONResponse(w, http.StatusCreated, sessionResponse(sess))
	}
}

// getSessionHandler returns the current state of a session
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeAppError(w, s.Logger, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionResponse(sess))
}

// deleteSessionHandler removes a session
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.Sessions.Get(id); err != nil {
		writeAppError(w, s.Logger, err)
		return
	}
	s.Sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// createTransitionHandler wraps a suggestion lifecycle transition with observability.
// action is one of "adopt", "ignore", "modify".
func (s *Server) createTransitionHandler(om *observability.ObservabilityManager, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.suggestion."+action)
		defer span.End()

		sessionID := r.PathValue("id")
		suggestionID := r.PathValue("sid")
		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("suggestion.id", suggestionID),
			attribute.String("operation", action),
		)

		sess, err := s.Sessions.Get(sessionID)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		analysisID := sess.Result().ID

		var state types.SuggestionState
		switch action {
		case "adopt":
			state, err = sess.Adopt(analysisID, suggestionID)
		case "ignore":
			state, err = sess.Ignore(analysisID, suggestionID)
		case "modify":
			var req ModifySuggestionRequest
			if parseErr := parseJSONRequest(r, &req); parseErr != nil {
				span.RecordError(parseErr)
				writeErrorResponse(w, "Invalid request body", parseErr.Error(), http.StatusBadRequest)
				return
			}
			if strings.TrimSpace(req.Text) == "" {
				writeErrorResponse(w, "Missing text", "text field is required", http.StatusBadRequest)
				return
			}
			state, err = sess.Modify(analysisID, suggestionID, req.Text)
		default:
			writeErrorResponse(w, "Unknown action", action, http.StatusNotFound)
			return
		}

		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "suggestion_transition", false, om,
				attribute.String("action", action))
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "suggestion_transition", true, om,
			attribute.String("action", action),
			attribute.String("status", string(state.Status)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("suggestion.status", string(state.Status)),
		)

		writeJSONResponse(w, http.StatusOK, TransitionResponse{
			SessionID: sess.ID(),
			State:     state,
		})
	}
}

// createApplyHandler wraps the patch application handler with observability
func (s *Server) createApplyHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.suggestion.apply")
		defer span.End()

		sessionID := r.PathValue("id")
		suggestionID := r.PathValue("sid")
		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("suggestion.id", suggestionID),
			attribute.String("operation", "apply"),
		)

		sess, err := s.Sessions.Get(sessionID)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics := om.GetMetrics()
		text, err := sess.ApplyToDocument(sess.Result().ID, suggestionID)
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "patch_applied", false, om)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "patch_applied", true, om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("document.length", len(text)),
		)

		writeJSONResponse(w, http.StatusOK, ApplyResponse{
			SessionID:   sess.ID(),
			WorkingText: text,
		})
	}
}

// createReanalyzeHandler wraps the reanalysis handler with observability
func (s *Server) createReanalyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumelens.api")
		ctx, span := tracer.Start(ctx, "api.session.reanalyze")
		defer span.End()

		sessionID := r.PathValue("id")
		span.SetAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("operation", "reanalyze"),
		)

		sess, err := s.Sessions.Get(sessionID)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics := om.GetMetrics()
		err = metrics.TrackAnalysis(ctx, "reanalyze", func(ctx context.Context) error {
			_, reanalyzeErr := sess.Reanalyze(ctx)
			return reanalyzeErr
		}, om)

		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordSuggestionCount(ctx, len(sess.Result().Suggestions), om)
		metrics.RecordDimensionScores(ctx, dimensionScores(sess.Result()), om)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.overall_score", sess.Result().OverallScore),
		)

		writeJSONResponse(w, http.StatusOK, sessionResponse(sess))
	}
}

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
