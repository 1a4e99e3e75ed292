package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every user-tunable setting with its defaults enumerated once.
// It replaces the ad-hoc key/value lookups of earlier iterations of the
// add-on: values are read from the config file and environment at load time
// and validated before any component sees them.
type Config struct {
	// API settings for the chat-completion endpoint.
	APIURL    string `mapstructure:"api_url" validate:"omitempty,url"`
	APIKey    string `mapstructure:"api_key"`
	ModelName string `mapstructure:"model_name"`

	// DeckName selects the deck the add-on acts on. It may carry a
	// "[N]" suffix selecting the 1-based note field the keyword is read
	// from, e.g. "Vocabulary[2]".
	DeckName string `mapstructure:"deck_name"`

	// Learner preferences interpolated into the generation prompt.
	LearningLanguage   string `mapstructure:"learning_language"`
	VocabLevel         string `mapstructure:"vocab_level"`
	LearningGoal       string `mapstructure:"learning_goal"`
	DifficultyLevel    string `mapstructure:"difficulty_level"`
	SentenceLengthDesc string `mapstructure:"sentence_length_desc"`

	// HighlightKeyword asks the model to wrap the keyword and the
	// matching part of the translation in <u> tags.
	HighlightKeyword bool `mapstructure:"highlight_keyword"`

	// PromptTemplate overrides the built-in prompt when non-empty.
	PromptTemplate string `mapstructure:"prompt_template"`

	// SentenceCount is how many pairs a single generation call asks for.
	SentenceCount int `mapstructure:"sentence_count" validate:"min=1,max=20"`

	// SelectionSentenceCount is the pair count for the word-selection
	// dialog, which typically wants fewer sentences.
	SelectionSentenceCount int `mapstructure:"selection_sentence_count" validate:"min=1,max=20"`

	// Pipeline tuning.
	LookaheadCount int           `mapstructure:"lookahead_count" validate:"min=1,max=100"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Workers overrides the worker pool size; 0 selects automatically
	// based on whether the endpoint is local.
	Workers int `mapstructure:"workers" validate:"min=0,max=16"`

	// CachePath is the sqlite file holding the sentence cache and the
	// per-deck statistics. Empty selects a path next to the config file.
	CachePath string `mapstructure:"cache_path"`

	// FontFamily selects the card font CSS block ("serif", "kaiti" or
	// empty for the system default).
	FontFamily string `mapstructure:"font_family"`
}

// Default returns the configuration defaults. The learner defaults mirror
// the presets the add-on ships for Chinese-speaking English learners.
func Default() Config {
	return Config{
		DeckName:               "",
		LearningLanguage:       "英语",
		VocabLevel:             "大学英语四级 CET-4 (4000词)",
		LearningGoal:           "提升日常浏览英文网页与资料的流畅度",
		DifficultyLevel:        "中级 (B1): 并列/简单复合句，稍复杂话题，扩大词汇范围",
		SentenceLengthDesc:     "中等长度句 (约25-40词): 通用对话及文章常用长度",
		SentenceCount:          5,
		SelectionSentenceCount: 3,
		LookaheadCount:         10,
		PollInterval:           100 * time.Millisecond,
		PollTimeout:            30 * time.Second,
		RequestTimeout:         30 * time.Second,
	}
}

// Load reads the configuration from viper, applying defaults for unset
// keys, and validates the result.
func Load() (Config, error) {
	cfg := Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = viper.GetString("api_key")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.APIURL != "" && c.ModelName == "" {
		return fmt.Errorf("invalid configuration: model_name is required when api_url is set")
	}
	if c.PollInterval <= 0 || c.PollTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid configuration: poll_interval, poll_timeout and request_timeout must be positive")
	}
	return nil
}

// Generation reports whether the endpoint settings are complete enough to
// attempt a generation call.
func (c Config) GenerationConfigured() bool {
	if c.APIURL == "" || c.ModelName == "" {
		return false
	}
	if c.APIKey == "" && !IsLocalEndpoint(c.APIURL) {
		return false
	}
	return true
}

// Learner is the immutable snapshot of learner preferences taken right
// before each generation call. Last read wins; snapshots are never merged.
type Learner struct {
	Language           string
	VocabLevel         string
	LearningGoal       string
	DifficultyLevel    string
	SentenceLengthDesc string
	SentenceCount      int
	Highlight          bool
	PromptTemplate     string
}

// Learner returns the learner preference snapshot for this configuration.
func (c Config) Learner() Learner {
	return Learner{
		Language:           c.LearningLanguage,
		VocabLevel:         c.VocabLevel,
		LearningGoal:       c.LearningGoal,
		DifficultyLevel:    c.DifficultyLevel,
		SentenceLengthDesc: c.SentenceLengthDesc,
		SentenceCount:      c.SentenceCount,
		Highlight:          c.HighlightKeyword,
		PromptTemplate:     c.PromptTemplate,
	}
}

// Store holds the live configuration behind a mutex so the review hook and
// workers can take fresh snapshots while the user edits settings. Workers
// snapshot once per generation; the latest stored value wins.
type Store struct {
	mu  sync.RWMutex
	cur Config
}

// NewStore returns a Store seeded with cfg.
func NewStore(cfg Config) *Store {
	return &Store{cur: cfg}
}

// Snapshot returns the current configuration by value.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update replaces the stored configuration after validating it.
func (s *Store) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = cfg
	s.mu.Unlock()
	return nil
}

var deckIndexPattern = regexp.MustCompile(`\[(\d+)\]$`)

// ParseDeckSpec splits a deck setting like "Vocabulary[2]" into the base
// deck name and the 1-based keyword field index. Without a suffix the index
// defaults to 1 (the front field).
func ParseDeckSpec(spec string) (deck string, fieldIndex int) {
	m := deckIndexPattern.FindStringSubmatch(spec)
	if m == nil {
		return spec, 1
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil || idx < 1 {
		idx = 1
	}
	return strings.TrimSuffix(spec, m[0]), idx
}

// IsLocalEndpoint reports whether the API URL points at a machine-local or
// LAN inference server (ollama, LM Studio and similar). Local endpoints get
// a single worker to avoid overloading a single-GPU server, and no
// Authorization header.
func IsLocalEndpoint(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	switch host {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	if strings.HasSuffix(host, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate()
	}
	return false
}
