// Package config defines the typed configuration for the sentence
// generation pipeline, loads it via viper and validates it at startup.
package config
