package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/socialismbuilder/ContextFlow/internal/archive"
	"github.com/socialismbuilder/ContextFlow/internal/batch"
	"github.com/socialismbuilder/ContextFlow/internal/cache"
	"github.com/socialismbuilder/ContextFlow/internal/chat"
	"github.com/socialismbuilder/ContextFlow/internal/cli"
	"github.com/socialismbuilder/ContextFlow/internal/config"
	"github.com/socialismbuilder/ContextFlow/internal/generation"
	"github.com/socialismbuilder/ContextFlow/internal/models"
	"github.com/socialismbuilder/ContextFlow/internal/stats"
)

var flags = cli.NewFlags()

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	rootCmd := cli.CreateRootCommand(flags)
	cobra.OnInitialize(func() { cli.InitConfig(flags.CfgFile) })
	rootCmd.RunE = run
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		cfg.APIKey = cli.GetAPIKey()
	}
	if cfg.CachePath == "" {
		cfg.CachePath = cli.DefaultCachePath()
	}

	store := config.NewStore(cfg)

	switch {
	case flags.ListModels:
		lister, err := models.NewLister(cfg)
		if err != nil {
			return err
		}
		return lister.Print(ctx, os.Stdout, cfg.ModelName)

	case flags.ExplainWord != "":
		session := chat.NewSession(store)
		err := session.Explain(ctx, flags.ExplainWord, func(delta string) {
			fmt.Print(delta)
		})
		fmt.Println()
		return err
	}

	c, err := cache.Open(cfg.CachePath, slog.Default())
	if err != nil {
		return err
	}
	defer c.Close()

	switch {
	case flags.ClearCache:
		if archivePath, err := archive.ArchiveCache(cfg.CachePath); err == nil {
			fmt.Printf("Cache backed up to %s\n", archivePath)
		}
		n := c.Len()
		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %d cached keywords\n", n)
		return nil

	case flags.ShowStats:
		return printStats(c)

	case flags.PrefetchFile != "":
		words, err := batch.ReadWordList(flags.PrefetchFile)
		if err != nil {
			return err
		}
		gen := generation.NewClient(store, slog.Default())
		p := batch.NewProcessor(gen, c, cfg.Learner(), os.Stdout)
		return p.Run(ctx, words)

	case len(args) == 1:
		return generateOne(ctx, store, c, args[0])
	}

	return cmd.Help()
}

func generateOne(ctx context.Context, store *config.Store, c *cache.Cache, word string) error {
	gen := generation.NewClient(store, slog.Default())
	pairs, err := gen.Generate(ctx, word, store.Snapshot().Learner())
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no usable pairs generated for %q", word)
	}
	if err := c.Merge(word, pairs); err != nil {
		return err
	}
	for _, pair := range pairs {
		fmt.Printf("%s\n%s\n\n", pair.Sentence, pair.Translation)
	}
	fmt.Printf("Cached %d pairs for %q\n", len(pairs), word)
	return nil
}

func printStats(c *cache.Cache) error {
	store, err := stats.NewStore(c.DB())
	if err != nil {
		return err
	}
	all, err := store.All()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No statistics recorded yet")
		return nil
	}
	fmt.Printf("%-30s %8s %8s %8s %8s %8s\n",
		"Deck", "Reviews", "Hits", "Gens", "Pairs", "Fails")
	for _, sum := range all {
		fmt.Printf("%-30s %8d %8d %8d %8d %8d\n",
			sum.Deck, sum.Reviews, sum.CacheHits, sum.Generations,
			sum.GeneratedPairs, sum.Failures)
	}
	return nil
}
