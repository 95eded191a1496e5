// Command docqa answers questions about a single document.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configDir, err := file.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:    settingsService,
		OpenRuntime: runtimeFactory(settingsService),
		OpenIndex:   indexFactory(settingsService),
	})

	return cli.ExecuteContext(ctx)
}

// indexFactory builds an index service for status and removal. It has no
// embedder and never reads documents, so no provider credentials are needed.
func indexFactory(settings driving.SettingsService) cli.IndexFactory {
	return func() (driving.IndexService, error) {
		s, err := settings.Get()
		if err != nil {
			return nil, err
		}
		return services.NewIndexService(nil, nil, sqlite.NewEngine(), s.Index), nil
	}
}

// runtimeFactory wires the full pipeline from the current settings.
func runtimeFactory(settings driving.SettingsService) cli.RuntimeFactory {
	return func(ctx context.Context, opts cli.RuntimeOptions) (*cli.Runtime, error) {
		s, err := settings.Get()
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}

		providers, err := ai.Init(s)
		if err != nil {
			return nil, err
		}

		chunks, err := postprocessors.NewFromSettings(normalisers.NewDefaultRegistry(), s.Index)
		if err != nil {
			providers.Close()
			return nil, err
		}

		events := driven.Observers{opts.Observer, logger.NewObserver()}

		var engine driven.VectorStoreEngine = sqlite.NewEngine()
		cleanup := func() {}
		if opts.Ephemeral {
			dir, err := os.MkdirTemp("", "docqa-")
			if err != nil {
				providers.Close()
				return nil, err
			}
			s.Index.BaseDir = dir
			engine = memory.NewVectorEngine()
			cleanup = func() { _ = os.RemoveAll(dir) }
		}

		indexes := services.NewIndexService(
			chunks, providers.EmbeddingService, engine, s.Index,
			services.WithObserver(events),
		)

		classifier := services.NewIntentClassifier(providers.LLMService, events)
		composer := services.NewAnswerComposer(providers.LLMService, s.Index.SearchK, events)

		prompts, err := file.NewPromptStore("")
		if err != nil {
			providers.Close()
			cleanup()
			return nil, err
		}
		classifier.SetPromptStore(prompts)
		composer.SetPromptStore(prompts)
		watchPrompts(ctx, prompts)

		sessions := services.NewSessionService(indexes, chunks, services.NewRAGService(classifier, composer))

		return cli.NewRuntime(indexes, sessions, s.Index.SearchK, func() error {
			providers.Close()
			cleanup()
			return nil
		}), nil
	}
}

// watchPrompts reloads edited prompt files for the lifetime of ctx.
// Failing to watch leaves the prompts loaded at startup in place.
func watchPrompts(ctx context.Context, prompts *file.PromptStore) {
	// Load creates the prompt directory on first use.
	if _, err := prompts.Load(driven.PromptClassify); err != nil {
		logger.Warn("Prompts: %v", err)
		return
	}

	reloaded, err := file.NewPromptWatcher(prompts, prompts.Dir()).Watch(ctx)
	if err != nil {
		logger.Debug("Prompt watcher disabled: %v", err)
		return
	}
	go func() {
		for name := range reloaded {
			logger.Info("Reloaded prompt %s", name)
		}
	}()
}
