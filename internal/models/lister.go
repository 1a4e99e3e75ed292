package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/socialismbuilder/ContextFlow/internal/config"
)

// Lister queries the configured endpoint for its available models.
type Lister struct {
	client *openai.Client
}

// NewLister creates a lister for the endpoint in cfg.
func NewLister(cfg config.Config) (*Lister, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url not configured. Set it in .contextflow.yaml or with --api-url")
	}
	if cfg.APIKey == "" && !config.IsLocalEndpoint(cfg.APIURL) {
		return nil, fmt.Errorf("API key not found. Set CONTEXTFLOW_API_KEY or configure api_key in .contextflow.yaml")
	}

	key := cfg.APIKey
	if config.IsLocalEndpoint(cfg.APIURL) {
		key = ""
	}
	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = strings.TrimRight(cfg.APIURL, "/")
	return &Lister{client: openai.NewClientWithConfig(clientCfg)}, nil
}

// ChatModels returns the chat-capable model IDs offered by the endpoint,
// sorted alphabetically. Embedding, audio and image models are filtered out.
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var chat []string
	for _, model := range models.Models {
		id := model.ID
		if strings.Contains(id, "embed") ||
			strings.Contains(id, "tts") ||
			strings.Contains(id, "audio") ||
			strings.Contains(id, "whisper") ||
			strings.Contains(id, "dall-e") {
			continue
		}
		chat = append(chat, id)
	}
	sort.Strings(chat)
	return chat, nil
}

// Print writes the chat model list to w, marking the configured model.
func (l *Lister) Print(ctx context.Context, w io.Writer, current string) error {
	chat, err := l.ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available chat models:")
	if len(chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return nil
	}
	for _, model := range chat {
		if model == current {
			fmt.Fprintf(w, "  %s (current)\n", model)
		} else {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}
	return nil
}
