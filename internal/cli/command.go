package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/socialismbuilder/ContextFlow/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contextflow [word]",
		Short: "Context sentence generator for Anki vocabulary decks",
		Long: `contextflow generates example sentences with translations for
vocabulary keywords, using any OpenAI-compatible chat endpoint, and caches
them for review.

Examples:
  contextflow ubiquitous            # Generate and cache sentences for one word
  contextflow --prefetch words.txt  # Fill the cache from a word list
  contextflow --explain ubiquitous  # Stream a word explanation
  contextflow --stats               # Show per-deck usage statistics`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.contextflow.yaml)")

	// Local flags
	cmd.Flags().StringVar(&flags.APIURL, "api-url", "", "OpenAI-compatible endpoint base URL")
	cmd.Flags().StringVarP(&flags.ModelName, "model", "m", "", "Chat model name")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", "", "Deck to act on, optionally with a field index like 'Vocabulary[2]'")
	cmd.Flags().StringVar(&flags.CachePath, "cache", "", "Path to the sentence cache database")
	cmd.Flags().IntVarP(&flags.SentenceCount, "count", "n", flags.SentenceCount, "Sentence pairs per generation call")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "Worker count override (0 = automatic)")
	cmd.Flags().StringVar(&flags.PrefetchFile, "prefetch", "", "Generate sentences for words from file (one per line)")
	cmd.Flags().StringVar(&flags.ExplainWord, "explain", "", "Stream an explanation for a word")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List chat models offered by the endpoint")
	cmd.Flags().BoolVar(&flags.ShowStats, "stats", false, "Show per-deck usage statistics")
	cmd.Flags().BoolVar(&flags.ClearCache, "clear-cache", false, "Remove all cached sentences")

	// Bind flags to viper
	bindFlagsToViper(cmd.Flags())
}

func bindFlagsToViper(fs *pflag.FlagSet) {
	viper.BindPFlag("api_url", fs.Lookup("api-url"))
	viper.BindPFlag("model_name", fs.Lookup("model"))
	viper.BindPFlag("deck_name", fs.Lookup("deck-name"))
	viper.BindPFlag("cache_path", fs.Lookup("cache"))
	viper.BindPFlag("sentence_count", fs.Lookup("count"))
	viper.BindPFlag("workers", fs.Lookup("workers"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".contextflow" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".contextflow")
	}

	// Environment variables
	viper.SetEnvPrefix("CONTEXTFLOW")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIKey retrieves the API key from environment or config
func GetAPIKey() string {
	// First check environment variables
	if key := os.Getenv("CONTEXTFLOW_API_KEY"); key != "" {
		return key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("api_key")
}

// DefaultCachePath returns the cache database location used when cache_path
// is not configured.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "contextflow.db"
	}
	return filepath.Join(home, ".local", "state", "contextflow", "cache.db")
}
