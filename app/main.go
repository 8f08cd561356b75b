package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-board/app/api"
	"github.com/lysyi3m/rss-board/app/cfg"
	"github.com/lysyi3m/rss-board/app/feed"
	"github.com/lysyi3m/rss-board/app/state"
	"github.com/lysyi3m/rss-board/app/sync"
	"github.com/lysyi3m/rss-board/app/tracker"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting RSS Board", "version", appCfg.Version, "dry_run", appCfg.DryRun)

	store, closeStore, err := buildStore(appCfg)
	if err != nil {
		slog.Error("Failed to initialize state store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rules, err := sync.LoadStatusRules(appCfg.RulesFile, appCfg.DefaultStatus)
	if err != nil {
		slog.Error("Failed to load status rules", "error", err)
		os.Exit(1)
	}

	sources, configCache, err := buildSources(appCfg)
	if err != nil {
		slog.Error("Failed to load feed configurations", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		slog.Error("No feeds configured", "feeds_dir", appCfg.FeedsDir)
		os.Exit(1)
	}

	gateway := tracker.NewGitHub(context.Background(), tracker.GitHubOptions{
		Token:         appCfg.GitHubToken,
		RepoOwner:     appCfg.RepoOwner,
		RepoName:      appCfg.RepoName,
		ProjectNumber: appCfg.ProjectNumber,
		ProjectID:     appCfg.ProjectID,
		Labels:        appCfg.Labels,
		Milestone:     appCfg.Milestone,
	})

	reconciler := sync.NewReconciler(gateway, rules, appCfg.StatusField, appCfg.DryRun)
	runner := sync.NewRunner(sources, store, reconciler, appCfg.DryRun)

	if appCfg.SyncInterval <= 0 {
		runOnce(runner)
		return
	}

	runWatch(appCfg, runner, store, configCache)
}

// runOnce performs a single sync run. A run that could not fetch every
// feed exits non-zero so cron-style callers notice; item-level failures
// are already counted in the summary and do not affect the exit code.
func runOnce(runner *sync.Runner) {
	summary, err := runner.RunOnce(context.Background())
	if err != nil {
		slog.Error("Sync run failed", "error", err)
		os.Exit(1)
	}

	if summary.FetchFailures > 0 {
		os.Exit(1)
	}
}

func runWatch(appCfg *cfg.Cfg, runner *sync.Runner, store state.Store, configCache *feed.ConfigCache) {
	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runner.Watch(watchCtx, time.Duration(appCfg.SyncInterval)*time.Second)

	serverErrChan := make(chan error, 1)

	var httpServer *http.Server
	if appCfg.Port != "" {
		handler := api.NewHandler(runner, store, configCache, appCfg.Version)
		server := api.NewServer(handler, appCfg.APIAccessKey)

		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      server,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

func buildStore(appCfg *cfg.Cfg) (state.Store, func(), error) {
	if appCfg.StateBackend == "sqlite" {
		sqliteStore, err := state.NewSQLiteStore(appCfg.StateFile)
		if err != nil {
			return nil, nil, err
		}
		closeStore := func() {
			if err := sqliteStore.Close(); err != nil {
				slog.Error("Failed to close state store", "error", err)
			}
		}
		return sqliteStore, closeStore, nil
	}

	return state.NewFileStore(appCfg.StateFile), func() {}, nil
}

// buildSources assembles one Source per enabled feed configuration, plus
// an inline source when --feed-url is set.
func buildSources(appCfg *cfg.Cfg) ([]sync.FeedSource, *feed.ConfigCache, error) {
	fetcher := feed.NewFetcher(appCfg.UserAgent)
	parser := feed.NewParser()
	extractor := feed.NewContentExtractor()

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return nil, nil, err
	}

	configs := configCache.GetEnabledConfigs()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)

	var sources []sync.FeedSource
	for _, name := range names {
		sources = append(sources, feed.NewSource(configs[name], fetcher, parser, extractor))
		slog.Debug("Feed configured", "feed", name, "url", configs[name].URL)
	}

	if appCfg.FeedURL != "" {
		inline := &feed.Config{
			Name: "feed",
			URL:  appCfg.FeedURL,
			Settings: feed.ConfigSettings{
				Enabled: true,
				Timeout: appCfg.FetchTimeout,
			},
		}
		sources = append(sources, feed.NewSource(inline, fetcher, parser, extractor))
		slog.Debug("Feed configured", "feed", inline.Name, "url", inline.URL)
	}

	return sources, configCache, nil
}
