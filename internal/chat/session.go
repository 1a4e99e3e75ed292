package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/socialismbuilder/ContextFlow/internal/config"
)

const explainPromptTemplate = `请用中文详细讲解{language}词汇 "{word}"：含义、常见用法、搭配和易混淆点，并给出两三个例句。讲解对象是正在学习{language}的中文母语者。`

// Session is one streaming explanation conversation about a word. The full
// history is resent on every turn so follow-up questions keep their context.
type Session struct {
	store   *config.Store
	history []openai.ChatCompletionMessage
}

// NewSession starts an empty conversation reading settings from store.
func NewSession(store *config.Store) *Session {
	return &Session{store: store}
}

func (s *Session) client(cfg config.Config) *openai.Client {
	key := cfg.APIKey
	if config.IsLocalEndpoint(cfg.APIURL) {
		key = ""
	}
	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = strings.TrimSuffix(strings.TrimRight(cfg.APIURL, "/"), "/chat/completions")
	return openai.NewClientWithConfig(clientCfg)
}

// stream sends the history plus content as a user turn and streams the
// reply, calling onDelta for each chunk. The completed exchange is appended
// to the history only after the stream finishes.
func (s *Session) stream(ctx context.Context, content string, onDelta func(string)) error {
	cfg := s.store.Snapshot()
	if !cfg.GenerationConfigured() {
		return fmt.Errorf("chat endpoint not configured")
	}

	messages := append(append([]openai.ChatCompletionMessage{}, s.history...),
		openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: content,
		})

	stream, err := s.client(cfg).CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    cfg.ModelName,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to start chat stream: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("chat stream failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	s.history = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply.String(),
	})
	return nil
}

// Explain opens the conversation with a word explanation request.
func (s *Session) Explain(ctx context.Context, word string, onDelta func(string)) error {
	cfg := s.store.Snapshot()
	prompt := strings.NewReplacer(
		"{word}", word,
		"{language}", cfg.LearningLanguage,
	).Replace(explainPromptTemplate)
	return s.stream(ctx, prompt, onDelta)
}

// Ask sends a follow-up question in the same conversation.
func (s *Session) Ask(ctx context.Context, question string, onDelta func(string)) error {
	if len(s.history) == 0 {
		return fmt.Errorf("no explanation to follow up on")
	}
	return s.stream(ctx, question, onDelta)
}

// History returns the messages exchanged so far.
func (s *Session) History() []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(s.history))
	copy(out, s.history)
	return out
}
