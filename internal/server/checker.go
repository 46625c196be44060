package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/veracity/internal/model"
)

// Checker produces verdicts for a batch of sentences. The handler consults
// the verdict cache first; only misses reach a Checker.
type Checker interface {
	CheckSentences(ctx context.Context, sentences []string) ([]model.Verdict, error)
}

// OpenAIChecker generates verdicts with an OpenAI-compatible chat model.
// BaseURL covers self-hosted endpoints that speak the same API.
type OpenAIChecker struct {
	client    *openai.Client
	modelName string
	timeout   time.Duration
	maxTokens int
}

// NewOpenAIChecker creates a checker from configuration
func NewOpenAIChecker(cfg model.CheckerConfig) (*OpenAIChecker, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("checker API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	return &OpenAIChecker{
		client:    openai.NewClientWithConfig(clientConfig),
		modelName: modelName,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

const systemPrompt = `You are a careful fact checker. For every sentence you receive, produce one verdict object. Respond with a JSON array only, no prose, where each element has exactly these fields:
- "sentence": the sentence being checked, verbatim
- "explanation": a short, sourced explanation of the verdict
- "rating": one of "True", "Mostly True", "Half True", "Mostly False", "False"
- "severity": one of "low", "medium", "high" - how much the inaccuracy matters
- "key_points": an array of short supporting points
- "source": an array of source URLs you relied on

Opinions, questions and unverifiable sentences get rating "Half True" with severity "low" and an explanation saying they cannot be checked.`

// CheckSentences asks the model for one verdict per sentence
func (c *OpenAIChecker) CheckSentences(ctx context.Context, sentences []string) ([]model.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(sentences, " ")},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	verdicts, err := parseVerdicts(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parse verdicts: %w", err)
	}
	return verdicts, nil
}

// parseVerdicts extracts the JSON verdict array from model output, tolerating
// surrounding prose or code fences, and normalizes enum values.
func parseVerdicts(content string) ([]model.Verdict, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in output")
	}

	var verdicts []model.Verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdicts); err != nil {
		return nil, err
	}

	for i := range verdicts {
		verdicts[i].Sentence = strings.TrimSpace(verdicts[i].Sentence)
		verdicts[i].Rating = normalizeRating(verdicts[i].Rating)
		verdicts[i].Severity = normalizeSeverity(verdicts[i].Severity)
	}
	return verdicts, nil
}

func normalizeRating(r model.Rating) model.Rating {
	switch strings.ToLower(strings.TrimSpace(string(r))) {
	case "true":
		return model.RatingTrue
	case "mostly true", "mostlytrue":
		return model.RatingMostlyTrue
	case "half true", "halftrue":
		return model.RatingHalfTrue
	case "mostly false", "mostlyfalse":
		return model.RatingMostlyFalse
	case "false":
		return model.RatingFalse
	default:
		return model.RatingHalfTrue
	}
}

func normalizeSeverity(s model.Severity) model.Severity {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "low":
		return model.SeverityLow
	case "medium":
		return model.SeverityMedium
	case "high":
		return model.SeverityHigh
	default:
		return model.SeverityLow
	}
}
