package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lightpattern/skillet/pkg/loadstate"
	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/lightpattern/skillet/pkg/manager"
	"github.com/lightpattern/skillet/pkg/presenter"
	"github.com/lightpattern/skillet/pkg/search"
	skilletserver "github.com/lightpattern/skillet/pkg/server"
	"github.com/lightpattern/skillet/pkg/version"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the skillet MCP server on stdio",
	Long: `Start the MCP server. The protocol is spoken over stdin/stdout, so this
command is meant to be launched by an MCP client; all logs go to stderr.

Search starts on the keyword strategy and promotes itself to embedding
similarity in the background once the configured embeddings endpoint
answers a warm-up probe.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runServeCommand(cmd.Context())
	},
}

func init() {
	defaults := newConfig()
	serveCmd.Flags().Bool("watch", defaults.Watch, "Watch skills directories and rescan on changes")
	serveCmd.Flags().Duration("watch-debounce", defaults.WatchDebounce, "Settle time before a filesystem change triggers a rescan")
	serveCmd.Flags().Bool("embedding", false, "Enable embedding-based semantic search")
	serveCmd.Flags().String("embedding-model", defaults.Embedding.Model, "Embedding model identifier")
	serveCmd.Flags().String("embedding-base-url", "", "OpenAI-compatible embeddings endpoint (default is the OpenAI API)")

	viper.BindPFlag("watch", serveCmd.Flags().Lookup("watch"))
	viper.BindPFlag("watch_debounce", serveCmd.Flags().Lookup("watch-debounce"))
	viper.BindPFlag("embedding.enabled", serveCmd.Flags().Lookup("embedding"))
	viper.BindPFlag("embedding.model", serveCmd.Flags().Lookup("embedding-model"))
	viper.BindPFlag("embedding.base_url", serveCmd.Flags().Lookup("embedding-base-url"))
}

func runServeCommand(ctx context.Context) {
	config, err := loadConfig()
	if err != nil {
		presenter.Error(err, "invalid configuration")
		os.Exit(1)
	}

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize tracing")
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.G(ctx).WithError(err).Warn("tracing shutdown error")
		}
	}()

	index, err := buildIndex(ctx, config)
	if err != nil {
		presenter.Error(err, "failed to scan skills directories")
		os.Exit(1)
	}

	log := logger.G(ctx).WithField("skills", index.Len())
	for _, d := range index.Diagnostics() {
		log.WithField("path", d.Path).WithField("kind", d.Kind).Warn(d.Detail)
	}
	log.WithField("roots", config.SkillsDirs).Info("skills registry ready")

	engine := search.NewEngine()
	engine.StartEmbeddingInit(ctx, embedderFactory(config.Embedding))

	mgr := manager.New(index, loadstate.NewStore(), engine)
	srv := skilletserver.New(mgr, version.Get().Version)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if config.Watch {
		go func() {
			if err := mgr.WatchRoots(ctx, config.WatchDebounce); err != nil && ctx.Err() == nil {
				logger.G(ctx).WithError(err).Warn("skills directory watcher stopped")
			}
		}()
	}

	logger.G(ctx).WithField("version", version.Get().Version).Info("starting MCP server on stdio")

	stdio := mcpserver.NewStdioServer(srv)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.G(ctx).WithError(err).Error("MCP server error")
		os.Exit(1)
	}

	logger.G(ctx).Info("MCP server stopped")
}

// embedderFactory converts the embedding configuration into a search
// engine factory. A disabled config yields nil, which the engine records
// as a permanent "not configured" state.
func embedderFactory(cfg EmbeddingConfig) search.EmbedderFactory {
	if !cfg.Enabled {
		return nil
	}
	return func(context.Context) (search.Embedder, error) {
		return search.NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model)
	}
}
