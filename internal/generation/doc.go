// Package generation talks to an OpenAI-compatible chat-completion endpoint
// to produce example sentence pairs for vocabulary keywords.
package generation
