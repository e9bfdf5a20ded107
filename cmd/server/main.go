package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/docmock/internal/api"
	"github.com/dgallion1/docmock/internal/config"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/mock"
	"github.com/dgallion1/docmock/internal/pipeline"
	"github.com/dgallion1/docmock/internal/script"
	"github.com/dgallion1/docmock/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not read .env", "error", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	rules, signatureKeys, err := cfg.Rules()
	if err != nil {
		log.Error("invalid classifier rules", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	st, err := store.NewCachedStore(db, cfg.ResponseCacheSize)
	if err != nil {
		log.Error("create response cache", "error", err)
		os.Exit(1)
	}
	if _, err := st.EnsureDefaultScene(ctx); err != nil {
		log.Error("ensure default scene", "error", err)
		os.Exit(1)
	}

	// Initialize LLM client.
	key, model := cfg.ProviderKey()
	client, err := extract.New(ctx, extract.Provider{
		Name:    cfg.LLMProvider,
		APIKey:  key,
		Model:   model,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		log.Error("create llm client", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}
	stats := extract.NewLLMStats(1 * time.Hour)
	llm := pipeline.Retrying{Client: extract.Instrumented{Client: client, Stats: stats}, Log: log}
	extractor := extract.NewExtractor(llm, log)

	// Initialize pipeline.
	worker := pipeline.NewWorker(extractor, st, log, rules,
		pipeline.WindowConfig{Tokens: cfg.FullAIWindowTokens, Overlap: cfg.FullAIWindowOverlap},
		cfg.MaxConcurrentExtract)
	orch := pipeline.NewOrchestrator(cfg, worker, st, log)
	orch.Start(ctx)

	// Initialize serving.
	var regen mock.Regenerator
	if cfg.MockAIRegenerate {
		regen = extractor
	}
	synth := mock.NewSynthesizer(st, st, regen, script.NewOttoEvaluator(cfg.ScriptTimeout), mock.Options{
		Regenerate:    cfg.MockAIRegenerate,
		MaxDelay:      cfg.MaxResponseDelay,
		SignatureKeys: signatureKeys,
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Store:        st,
		Resolver:     mock.NewResolver(st, cfg.MockLooseMethodMatch),
		Synthesizer:  synth,
		LLMStats:     stats,
		Model:        client.Model(),
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if c, ok := client.(interface{ Close() }); ok {
			c.Close()
		}
		st.Close()
	}()

	log.Info("starting docmock", "port", cfg.Port, "provider", cfg.LLMProvider, "model", client.Model())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
