package cli

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd == nil {
		t.Fatal("CreateRootCommand returned nil")
	}
	if cmd.Use != "contextflow [word]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("Version not set")
	}
}

func TestFlagsRegistered(t *testing.T) {
	cmd := CreateRootCommand(NewFlags())

	for _, name := range []string{
		"api-url", "model", "deck-name", "cache", "count", "workers",
		"prefetch", "explain", "list-models", "stats", "clear-cache",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Flag --%s not registered", name)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("Persistent flag --config not registered")
	}
}

func TestFlagParsing(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	err := cmd.ParseFlags([]string{
		"--api-url", "http://localhost:11434/v1",
		"--model", "qwen2.5",
		"--deck-name", "Vocabulary[2]",
		"--count", "3",
		"--workers", "2",
	})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	if flags.APIURL != "http://localhost:11434/v1" {
		t.Errorf("Unexpected APIURL: %s", flags.APIURL)
	}
	if flags.ModelName != "qwen2.5" {
		t.Errorf("Unexpected ModelName: %s", flags.ModelName)
	}
	if flags.DeckName != "Vocabulary[2]" {
		t.Errorf("Unexpected DeckName: %s", flags.DeckName)
	}
	if flags.SentenceCount != 3 || flags.Workers != 2 {
		t.Errorf("Unexpected counts: %d workers %d", flags.SentenceCount, flags.Workers)
	}
}

func TestGetAPIKey(t *testing.T) {
	t.Cleanup(viper.Reset)

	os.Setenv("CONTEXTFLOW_API_KEY", "ctx-key")
	os.Setenv("OPENAI_API_KEY", "oa-key")
	defer os.Unsetenv("CONTEXTFLOW_API_KEY")
	defer os.Unsetenv("OPENAI_API_KEY")

	if key := GetAPIKey(); key != "ctx-key" {
		t.Errorf("CONTEXTFLOW_API_KEY should win, got %q", key)
	}

	os.Unsetenv("CONTEXTFLOW_API_KEY")
	if key := GetAPIKey(); key != "oa-key" {
		t.Errorf("OPENAI_API_KEY should be the fallback, got %q", key)
	}

	os.Unsetenv("OPENAI_API_KEY")
	viper.Set("api_key", "file-key")
	if key := GetAPIKey(); key != "file-key" {
		t.Errorf("Config file key should be the last fallback, got %q", key)
	}
}

func TestDefaultCachePath(t *testing.T) {
	if DefaultCachePath() == "" {
		t.Error("DefaultCachePath returned empty string")
	}
}
