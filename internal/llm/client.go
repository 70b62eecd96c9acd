package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/creatorlane/discount-agent/internal/agent"
)

// Confidence reported for an allow-listed creator returned by the model.
const successConfidence = 0.8

// Config bounds the fallback classifier.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxAttempts       int
	PerAttemptTimeout time.Duration
	TotalBudget       time.Duration
}

// completionAPI is the slice of the OpenAI client the classifier needs.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client classifies message text against an allow-list of creator handles
// using an OpenAI-compatible chat endpoint. Every run is bounded by an
// attempt cap, a per-attempt timeout, and a total time budget; a timeout or
// malformed response is an attempt failure, never a request failure.
type Client struct {
	api               completionAPI
	model             string
	maxAttempts       int
	perAttemptTimeout time.Duration
	totalBudget       time.Duration
	logger            *zap.Logger
}

// NewClient builds the classifier from runtime configuration.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	perAttempt := cfg.PerAttemptTimeout
	if perAttempt <= 0 {
		perAttempt = 4 * time.Second
	}
	budget := cfg.TotalBudget
	if budget <= 0 {
		budget = 8 * time.Second
	}

	return &Client{
		api:               openai.NewClientWithConfig(apiCfg),
		model:             cfg.Model,
		maxAttempts:       maxAttempts,
		perAttemptTimeout: perAttempt,
		totalBudget:       budget,
		logger:            logger,
	}
}

type creatorResponse struct {
	Creator string `json:"creator"`
}

// DetectCreator runs the bounded retry loop. The outcome always reports how
// many attempts ran; CreatorID is empty when the model answered "none",
// returned garbage on every attempt, or the budget ran out.
func (c *Client) DetectCreator(ctx context.Context, text string, allowedIDs []string) agent.LLMOutcome {
	start := time.Now()
	attempts := 0
	lastReason := ""

	c.logger.Debug("llm fallback start",
		zap.Int("max_attempts", c.maxAttempts),
		zap.Duration("per_attempt_timeout", c.perAttemptTimeout),
		zap.Duration("total_budget", c.totalBudget))

	for attempts < c.maxAttempts {
		elapsed := time.Since(start)
		if elapsed > c.totalBudget {
			lastReason = "budget exhausted"
			break
		}
		attempts++

		attemptTimeout := c.perAttemptTimeout
		if remaining := c.totalBudget - elapsed; remaining < attemptTimeout {
			attemptTimeout = remaining
		}

		creator, terminal, err := c.singleAttempt(ctx, text, allowedIDs, attemptTimeout)
		switch {
		case err == nil && creator != "":
			c.logger.Info("llm detection success",
				zap.String("creator", creator),
				zap.Int("attempt", attempts),
				zap.Duration("latency", time.Since(start)),
				zap.String("model", c.model))
			return agent.LLMOutcome{
				CreatorID:  creator,
				Confidence: successConfidence,
				Attempts:   attempts,
			}
		case err == nil && terminal:
			// A well-formed "none" is definitive; retrying would just burn
			// budget on the same answer.
			c.logger.Info("llm detection none",
				zap.Int("attempt", attempts),
				zap.Duration("latency", time.Since(start)))
			return agent.LLMOutcome{Attempts: attempts, Reason: "llm returned none"}
		default:
			if err != nil {
				lastReason = err.Error()
			} else {
				lastReason = "invalid response"
			}
			c.logger.Warn("llm attempt failed",
				zap.Int("attempt", attempts),
				zap.String("reason", lastReason))
		}

		if attempts < c.maxAttempts {
			backoff := time.Duration(10+attempts*5) * time.Millisecond
			select {
			case <-ctx.Done():
				return agent.LLMOutcome{Attempts: attempts, Reason: ctx.Err().Error()}
			case <-time.After(backoff):
			}
		}
	}

	if lastReason == "" {
		lastReason = "retry limit exceeded"
	}
	return agent.LLMOutcome{Attempts: attempts, Reason: lastReason}
}

// singleAttempt makes one bounded call. terminal is true only for a parsed
// "none" answer.
func (c *Client) singleAttempt(ctx context.Context, text string, allowedIDs []string, timeout time.Duration) (creator string, terminal bool, err error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(allowedIDs)},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Message: %q", text)},
		},
		Temperature: 0.1,
		MaxTokens:   50,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", false, fmt.Errorf("no response choices")
	}

	return validateResponse(strings.TrimSpace(resp.Choices[0].Message.Content), allowedIDs)
}

// validateResponse enforces the allow-list: anything that is not a known
// handle or the literal "none" counts as a failed attempt.
func validateResponse(raw string, allowedIDs []string) (string, bool, error) {
	var parsed creatorResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", false, fmt.Errorf("invalid json: %w", err)
	}
	if parsed.Creator == "none" {
		return "", true, nil
	}
	for _, id := range allowedIDs {
		if parsed.Creator == id {
			return parsed.Creator, false, nil
		}
	}
	return "", false, fmt.Errorf("creator %q not in allow-list", parsed.Creator)
}

func systemPrompt(allowedIDs []string) string {
	list := strings.Join(allowedIDs, "|")
	return fmt.Sprintf(`You are a short-text classifier. Map a user message to ONE creator handle from an allowed list, or "none" if it clearly does not refer to any of them.

Consider misspellings, nicknames, real names, and common variations. Pick the closest matching creator when there is a clear referent; otherwise return "none".

Allowed handles: %s

Output only JSON as: {"creator":"<%s|none>"}`, strings.Join(allowedIDs, ", "), list)
}
