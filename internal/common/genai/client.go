// internal/common/genai/client.go
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "planning-workers/internal/common/errors"
	"planning-workers/internal/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrReasoningUnavailable = errors.New("REASONING_UNAVAILABLE")
	ErrReasoningUnparsable  = errors.New("REASONING_UNPARSABLE")
)

// DataNeeds is the structured retrieval-need judgement.
type DataNeeds struct {
	NeedsPrecedentSearch    bool     `json:"needsPrecedentSearch"`
	NeedsPolicyRegistry     bool     `json:"needsPolicyRegistry"`
	NeedsConstraintRegistry bool     `json:"needsConstraintRegistry"`
	AdditionalQueries       []string `json:"additionalQueries"`
}

// GroundedResult is the output of a widening grounding search.
type GroundedResult struct {
	Query          string   `json:"query"`
	InferredTopics []string `json:"inferredTopics"`
	Snippets       []string `json:"snippets"`
}

// ConservativeDataNeeds is the fail-open default: query every source rather
// than risk missing signal. Downstream fusion tolerates excess candidates.
func ConservativeDataNeeds() *DataNeeds {
	return &DataNeeds{
		NeedsPrecedentSearch:    true,
		NeedsPolicyRegistry:     true,
		NeedsConstraintRegistry: true,
	}
}

// Reasoner is the reasoning-service boundary consumed by the retrieval
// workers. Both calls must be substituted with deterministic defaults by the
// caller when they fail.
type Reasoner interface {
	AssessDataNeeds(ctx context.Context, query string, rctx models.RetrievalContext, localSummary string) (*DataNeeds, error)
	GroundedSearch(ctx context.Context, query string) (*GroundedResult, error)
}

// Client calls the Gemini API for structured planning judgements.
type Client struct {
	client     *genai.Client
	model      string
	maxRetries int
}

// NewClient creates a reasoning client against the Gemini API.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: c, model: model, maxRetries: 2}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

const dataNeedsPrompt = `You are assessing which external planning data sources are worth querying for a development proposal.
Query: %s
Authority: %s
Development type: %s
Local evidence summary: %s

Respond with JSON only, no prose:
{"needsPrecedentSearch": bool, "needsPolicyRegistry": bool, "needsConstraintRegistry": bool, "additionalQueries": ["..."]}`

// AssessDataNeeds asks the reasoning service which sources are worth querying
// and for up to three targeted sub-queries.
func (c *Client) AssessDataNeeds(ctx context.Context, query string, rctx models.RetrievalContext, localSummary string) (*DataNeeds, error) {
	prompt := fmt.Sprintf(dataNeedsPrompt, query, rctx.Authority, rctx.DevelopmentType, localSummary)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, apperrors.NewReasoningUnavailableError(fmt.Errorf("%w: %v", ErrReasoningUnavailable, err))
	}

	var needs DataNeeds
	if err := ExtractJSON(text, &needs); err != nil {
		return nil, apperrors.NewReasoningUnparsableError(fmt.Errorf("%w: %v", ErrReasoningUnparsable, err), text)
	}

	// Hard cap, whatever the service suggested.
	if len(needs.AdditionalQueries) > 3 {
		needs.AdditionalQueries = needs.AdditionalQueries[:3]
	}

	return &needs, nil
}

const groundedSearchPrompt = `You are widening a thin planning evidence search.
Query: %s

Respond with JSON only, no prose:
{"query": "...", "inferredTopics": ["..."], "snippets": ["short factual snippets relevant to the query"]}`

// GroundedSearch issues one broad widening query. Callers bound it with a
// short timeout and swallow failures.
func (c *Client) GroundedSearch(ctx context.Context, query string) (*GroundedResult, error) {
	text, err := c.generate(ctx, fmt.Sprintf(groundedSearchPrompt, query))
	if err != nil {
		return nil, apperrors.NewReasoningUnavailableError(fmt.Errorf("%w: %v", ErrReasoningUnavailable, err))
	}

	var result GroundedResult
	if err := ExtractJSON(text, &result); err != nil {
		return nil, apperrors.NewReasoningUnparsableError(fmt.Errorf("%w: %v", ErrReasoningUnparsable, err), text)
	}
	if result.Query == "" {
		result.Query = query
	}

	return &result, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if ctx.Err() != nil ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			return "", context.DeadlineExceeded
		}
		if err != nil {
			lastErr = err
			continue
		}

		text := responseText(resp)
		if text == "" {
			lastErr = fmt.Errorf("empty response")
			continue
		}
		return text, nil
	}

	return "", lastErr
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
