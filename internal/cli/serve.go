package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ak91singh/Rizz-academy/internal/auth"
	"github.com/ak91singh/Rizz-academy/internal/config"
	"github.com/ak91singh/Rizz-academy/internal/content"
	"github.com/ak91singh/Rizz-academy/internal/httpapi"
	"github.com/ak91singh/Rizz-academy/internal/llm"
	"github.com/ak91singh/Rizz-academy/internal/logging"
	"github.com/ak91singh/Rizz-academy/internal/metrics"
	"github.com/ak91singh/Rizz-academy/internal/progress"
	"github.com/ak91singh/Rizz-academy/internal/service"
	"github.com/ak91singh/Rizz-academy/internal/store"
)

func NewServeCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	flags := cmd.Flags()
	flags.String("host", "", "listen host, e.g. 0.0.0.0")
	flags.Int("port", 8080, "listen port")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("store", store.EngineSQLite, "json, sqlite, postgres or mongo")
	flags.String("dsn", "", "store file path or connection URI")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.NewByEngine(ctx, cfg.Store.Engine, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Store.Engine, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	ledger := progress.New(st, progress.WithLogger(logger.Named("progress")))

	authSvc, err := auth.NewService(st,
		auth.NewHTTPProvider(cfg.Auth.SessionDataURL, cfg.Auth.Timeout),
		ledger,
		auth.Config{SessionTTL: cfg.Auth.SessionTTL, CacheSize: cfg.Auth.CacheSize},
		auth.WithLogger(logger.Named("auth")),
	)
	if err != nil {
		return err
	}

	overrides, err := llm.LoadPromptOverrides(cfg.LLM.PromptsDir)
	if err != nil {
		return fmt.Errorf("load prompt overrides: %w", err)
	}
	catalog := content.Default().WithPromptOverrides(overrides)

	provider, err := newChatProvider(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	svc := service.New(st, ledger,
		service.WithContent(catalog),
		service.WithChatProvider(provider),
		service.WithMetrics(m),
		service.WithLogger(logger.Named("service")),
		service.WithChatRateLimit(cfg.Chat.RatePerMinute, cfg.Chat.Burst),
	)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(
		httpapi.NewHandler(svc, authSvc, logger.Named("http"), cfg.Auth.CookieSecure),
		httpapi.RouterOptions{Logger: logger.Named("http"), Metrics: m, Gatherer: reg},
	)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("rizz academy backend listening",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Store.Engine),
			zap.Int("prompt_overrides", len(overrides)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newChatProvider returns nil without an API key; chat then answers with the
// fallback reply.
func newChatProvider(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.ChatProvider, error) {
	logger.Info("llm config",
		zap.String("provider", cfg.Provider),
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.String("api_key", keyMeta(cfg.APIKey)),
	)
	provider, err := llm.NewProvider(ctx, cfg.Provider, llm.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("llm integration disabled, chat uses the fallback reply")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	return provider, nil
}

// keyMeta describes an API key without revealing it.
func keyMeta(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "empty=true"
	}
	quoted := len(trimmed) >= 2 &&
		((trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"') || (trimmed[0] == '\'' && trimmed[len(trimmed)-1] == '\''))
	return fmt.Sprintf("len=%d prefix_sk=%t quoted=%t", len(trimmed), strings.HasPrefix(strings.ToLower(trimmed), "sk-"), quoted)
}
