package scorer

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/errors"
	"resumelens/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiScorer scores resumes through the Gemini API. Each dimension call
// requests structured JSON output constrained by a response schema, so the
// model's answer unmarshals directly into the dimension result type.
//
// Unlike RulesScorer this backend is not deterministic; it exists for
// production builds that want model-assisted findings.
type GeminiScorer struct {
	client         *genai.Client
	config         config.GeminiScorerConfig
	circuitBreaker *ScorerCircuitBreaker
	logger         *errors.Logger
}

// Ensure GeminiScorer implements Scorer
var _ Scorer = (*GeminiScorer)(nil)

// NewGeminiScorer creates the remote scoring backend.
func NewGeminiScorer(cfg config.GeminiScorerConfig, logger *errors.Logger) (*GeminiScorer, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewScorerError(errors.ErrCodeScorerFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiScorer{
		client:         client,
		config:         cfg,
		circuitBreaker: NewScorerCircuitBreaker(cfg.CircuitBreaker, logger),
		logger:         logger,
	}, nil
}

// Name implements Scorer
func (g *GeminiScorer) Name() string {
	return "gemini"
}

const scorerSystemPrompt = `You are a resume analysis engine. You receive resume text and a target job.
Respond with strictly valid JSON matching the requested schema. All scores are integers from 0 to 100.
Be concrete: quote exact resume text in findings so they can be located verbatim.`

// ScoreKeywords implements Scorer
func (g *GeminiScorer) ScoreKeywords(ctx context.Context, in Input) (types.KeywordAnalysis, error) {
	prompt := fmt.Sprintf(
		"Score how well this resume covers the target job's keywords.\n\nJob title: %s\nKeywords: %v\nJob description:\n%s\n\nResume:\n%s",
		in.Job.Title, in.Job.Keywords, in.Job.Description, in.ResumeText)

	out, err := executeScoringCall[types.KeywordAnalysis](g, ctx, "score_keywords", prompt, keywordSchema(),
		attribute.Int("input.keyword_count", len(in.Job.Keywords)))
	if err != nil {
		return types.KeywordAnalysis{}, err
	}
	out.Score = clampScore(out.Score)
	return out, nil
}

// CheckGrammar implements Scorer
func (g *GeminiScorer) CheckGrammar(ctx context.Context, in Input) (types.GrammarCheck, error) {
	prompt := "Check this resume for grammar and readability issues (repeated words, passive voice, weak verbs, overlong sentences).\n\nResume:\n" + in.ResumeText

	out, err := executeScoringCall[types.GrammarCheck](g, ctx, "check_grammar", prompt, grammarSchema())
	if err != nil {
		return types.GrammarCheck{}, err
	}
	out.Score = clampScore(out.Score)
	out.OverallReadability = clampScore(out.OverallReadability)
	out.TotalIssues = len(out.Issues)
	return out, nil
}

// AnalyzeFormat implements Scorer
func (g *GeminiScorer) AnalyzeFormat(ctx context.Context, in Input) (types.FormatAnalysis, error) {
	prompt := "Analyze this resume's structure and ATS compatibility (standard section headers, table/column artifacts, date format consistency).\n\nResume:\n" + in.ResumeText

	out, err := executeScoringCall[types.FormatAnalysis](g, ctx, "analyze_format", prompt, formatSchema())
	if err != nil {
		return types.FormatAnalysis{}, err
	}
	out.Score = clampScore(out.Score)
	out.ATSCompatibility = clampScore(out.ATSCompatibility)
	return out, nil
}

// ScoreQuantitative implements Scorer
func (g *GeminiScorer) ScoreQuantitative(ctx context.Context, in Input) (types.QuantitativeAnalysis, error) {
	prompt := "Count this resume's achievement statements and how many carry numeric results (percentages, dollar amounts, counts).\n\nResume:\n" + in.ResumeText

	out, err := executeScoringCall[types.QuantitativeAnalysis](g, ctx, "score_quantitative", prompt, quantSchema())
	if err != nil {
		return types.QuantitativeAnalysis{}, err
	}
	out.Score = clampScore(out.Score)
	if out.AchievementsWithNumbers > out.TotalAchievements {
		out.AchievementsWithNumbers = out.TotalAchievements
	}
	return out, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiScorer) GetCircuitBreakerStats() map[string]any {
	return g.circuitBreaker.GetStats()
}

// executeScoringCall is a generic helper that runs one dimension call with
// tracing, circuit breaker, retry, and JSON parsing.
func executeScoringCall[Out any](
	g *GeminiScorer,
	ctx context.Context,
	operationName string,
	userPrompt string,
	schema *genai.Schema,
	spanAttributes ...attribute.KeyValue,
) (Out, error) {
	var output Out
	tracer := otel.Tracer("resumelens.scorer.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("scorer.backend", "gemini"),
		attribute.String("scorer.model", g.config.Model),
		attribute.Float64("scorer.temperature", float64(g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
		SystemInstruction: genai.NewContentFromText(scorerSystemPrompt, genai.RoleUser),
	}
	if g.config.Temperature > 0 {
		temp := g.config.Temperature
		genaiConfig.Temperature = &temp
	}

	callCtx := ctx
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(callCtx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, errors.NewScorerError(errors.ErrCodeScorerFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, errors.NewScorerError("SCORER_RESPONSE_PARSE_FAILED",
			"Failed to parse scorer response for "+operationName, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, nil
}

// executeWithRetry executes a scoring call with retry logic and exponential backoff
func (g *GeminiScorer) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying scoring call",
				"operation", operation,
				"attempt", attempt,
				"max_retries", g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("Scoring call succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "Scoring call failed after all retry attempts",
		"operation", operation,
		"total_attempts", g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Network errors (timeouts, connection issues) are worth retrying
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	// Google API errors with transient HTTP status codes
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

func keywordSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":         {Type: genai.TypeInteger},
			"totalKeywords": {Type: genai.TypeInteger},
			"matchedKeywords": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keyword":        {Type: genai.TypeString},
						"frequency":      {Type: genai.TypeInteger},
						"relevanceScore": {Type: genai.TypeNumber},
						"contextSnippets": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"keyword", "frequency", "relevanceScore", "contextSnippets"},
				},
			},
			"missingKeywords": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"keyword":    {Type: genai.TypeString},
						"importance": {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
						"suggestedPlacement": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
						"relatedTerms": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"keyword", "importance", "suggestedPlacement", "relatedTerms"},
				},
			},
		},
		Required: []string{"score", "totalKeywords", "matchedKeywords", "missingKeywords"},
	}
}

func grammarSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":       {Type: genai.TypeInteger},
			"totalIssues": {Type: genai.TypeInteger},
			"issues": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":       {Type: genai.TypeString},
						"text":       {Type: genai.TypeString},
						"suggestion": {Type: genai.TypeString},
						"start":      {Type: genai.TypeInteger},
						"end":        {Type: genai.TypeInteger},
					},
					Required: []string{"type", "text", "suggestion"},
				},
			},
			"overallReadability": {Type: genai.TypeInteger},
		},
		Required: []string{"score", "totalIssues", "issues", "overallReadability"},
	}
}

func formatSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":            {Type: genai.TypeInteger},
			"atsCompatibility": {Type: genai.TypeInteger},
			"issues": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"recommendations": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"sectionStructure": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":    {Type: genai.TypeString},
						"present": {Type: genai.TypeBoolean},
						"order":   {Type: genai.TypeInteger},
					},
					Required: []string{"name", "present", "order"},
				},
			},
		},
		Required: []string{"score", "atsCompatibility", "issues", "recommendations", "sectionStructure"},
	}
}

func quantSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":                   {Type: genai.TypeInteger},
			"achievementsWithNumbers": {Type: genai.TypeInteger},
			"totalAchievements":       {Type: genai.TypeInteger},
			"impactWords": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"score", "achievementsWithNumbers", "totalAchievements", "impactWords"},
	}
}
