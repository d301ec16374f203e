package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/tgflow"
	"github.com/aretw0/tgflow/internal/config"
	adminhttp "github.com/aretw0/tgflow/pkg/adapters/http"
	"github.com/aretw0/tgflow/pkg/adapters/telegram"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/middleware"
	"github.com/aretw0/tgflow/pkg/observability"
	"github.com/aretw0/tgflow/pkg/schema"
)

var runCmd = &cobra.Command{
	Use:   "run [flows]",
	Short: "Run the bot against Telegram",
	Long: `Loads the schema and serves it through Telegram long polling until interrupted.
The bot token comes from telegram.bot_token or the TGFLOW_TOKEN environment variable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if admin, _ := cmd.Flags().GetString("admin"); admin != "" {
			cfg.Admin.Enabled = true
			cfg.Admin.Addr = admin
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBot(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("admin", "", "Serve the admin API on this address (enables admin)")
}

func runBot(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting bot", "name", cfg.Bot.Name, "flows", cfg.Flows.Path)
	s, err := loadSchema(ctx, cfg, schema.NewRegistry())
	if err != nil {
		return err
	}

	platform, err := telegram.New(cfg.Telegram.BotToken,
		telegram.WithLogger(logger.With("component", "telegram")),
		telegram.WithAPIURL(cfg.Telegram.APIURL),
	)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// The admin server and the metric gauges read from the bot, which does
	// not exist yet; both are bound once it is built.
	var bot *tgflow.Bot
	admin := adminhttp.NewServer(nil,
		adminhttp.WithLogger(logger.With("component", "admin")),
		adminhttp.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		adminhttp.WithRedaction(cfg.Admin.Redact...),
	)
	metrics, err := observability.NewMetrics(reg,
		observability.WithPendingWaits(func() int { return bot.PendingWaits() }),
		observability.WithConversations(func() int { return len(bot.Conversations()) }),
	)
	if err != nil {
		return err
	}

	mws := []middleware.Func{
		metrics.Middleware(),
		middleware.Logging(logger),
		middleware.Sanitize(cfg.Telegram.MaxInputSize),
	}
	if len(cfg.Telegram.AllowedUsers) > 0 {
		mws = append(mws, middleware.AllowUsers(func(_ context.Context, u *domain.Update) {
			logger.Warn("update from user outside the allow-list", "user_id", u.UserID, "username", u.Username)
		}, cfg.Telegram.AllowedUsers...))
	}

	opts := []tgflow.Option{
		tgflow.WithName(cfg.Bot.Name),
		tgflow.WithLogger(logger),
		tgflow.WithConfig(cfg.Bot.Config),
		tgflow.WithMiddleware(mws...),
		tgflow.WithLifecycleHooks(observability.ChainHooks(
			observability.LoggingHooks(logger),
			metrics.Hooks(),
			admin.Hooks(),
		)),
	}
	if cfg.Eviction.Schedule != "" {
		opts = append(opts, tgflow.WithIdleEviction(cfg.Eviction.Schedule, cfg.Eviction.MaxIdle))
	}

	bot, err = tgflow.New(s, platform, opts...)
	if err != nil {
		return err
	}
	defer bot.Stop()
	admin.Bot = bot

	if cfg.Telegram.RegisterCommands {
		if err := platform.SetCommands(ctx, bot.Commands()); err != nil {
			logger.Warn("failed to register commands", "err", err)
		}
	}

	errCh := make(chan error, 1)
	var srv *http.Server
	if cfg.Admin.Enabled {
		srv = &http.Server{
			Addr:              cfg.Admin.Addr,
			Handler:           admin.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("admin server listening", "addr", cfg.Admin.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("admin server failed: %w", err)
			}
		}()
	}

	bridge := telegram.NewBridge(platform, bot,
		telegram.WithBridgeLogger(logger.With("component", "bridge")),
		telegram.WithDropPendingUpdates(cfg.Telegram.DropPendingUpdates),
		telegram.WithMaxRoutines(cfg.Telegram.MaxRoutines),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case err := <-errCh:
			logger.Error("shutting down", "err", err)
			cancel()
		case <-runCtx.Done():
		}
	}()

	err = bridge.Run(runCtx)
	bot.Stop()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("admin server shutdown failed", "err", serr)
		}
	}
	logger.Info("bot stopped")
	return err
}

var _ telegram.Handler = (*tgflow.Bot)(nil)
