package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/sentence"
)

// ErrNotConfigured is returned when the API endpoint, model or key settings
// are incomplete. Callers treat it as a permanent miss, not a retry case.
var ErrNotConfigured = errors.New("generation endpoint not configured")

// Client issues chat-completion requests against an OpenAI-compatible
// endpoint. Each request is a single blocking call with no retries; repeated
// failures open the circuit breaker so a dead endpoint sheds load instead of
// stacking up 30-second timeouts.
type Client struct {
	store   *config.Store
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient builds a Client reading its settings from store.
func NewClient(store *config.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "generation",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generation breaker state change",
				"from", from.String(), "to", to.String())
		},
	})
	return &Client{store: store, breaker: breaker, logger: logger}
}

// normalizeBaseURL converts a configured endpoint, which users commonly
// paste as a full /chat/completions URL, into the client base URL.
func normalizeBaseURL(rawURL string) string {
	base := strings.TrimRight(rawURL, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return base
}

func (c *Client) openaiClient(cfg config.Config) *openai.Client {
	key := cfg.APIKey
	if config.IsLocalEndpoint(cfg.APIURL) {
		key = ""
	}
	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = normalizeBaseURL(cfg.APIURL)
	return openai.NewClientWithConfig(clientCfg)
}

// Generate requests learner.SentenceCount sentence pairs for keyword with a
// single chat-completion call.
func (c *Client) Generate(ctx context.Context, keyword string, learner config.Learner) ([]sentence.Pair, error) {
	cfg := c.store.Snapshot()
	if !cfg.GenerationConfigured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: cfg.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(keyword, learner),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.openaiClient(cfg).CreateChatCompletion(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("generation endpoint unavailable: %w", err)
		}
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	pairs, err := ParsePairs(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("generated sentences",
		"keyword", keyword,
		"pairs", len(pairs),
		"elapsed", time.Since(start))
	return pairs, nil
}

// GenerateForSelection requests count pairs for a word picked from selected
// text, using the same learner preferences but a smaller batch.
func (c *Client) GenerateForSelection(ctx context.Context, word string, count int) ([]sentence.Pair, error) {
	cfg := c.store.Snapshot()
	learner := cfg.Learner()
	if count > 0 {
		learner.SentenceCount = count
	} else if cfg.SelectionSentenceCount > 0 {
		learner.SentenceCount = cfg.SelectionSentenceCount
	}
	return c.Generate(ctx, word, learner)
}
