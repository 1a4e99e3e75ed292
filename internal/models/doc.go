// Package models lists the chat models offered by the configured
// OpenAI-compatible endpoint, so users can pick a model_name that the
// endpoint actually serves.
package models
