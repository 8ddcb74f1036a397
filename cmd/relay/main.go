package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tg-relay/internal/adapters/api"
	"tg-relay/internal/adapters/bot"
	"tg-relay/internal/adapters/telegram"
	"tg-relay/internal/domain"
	"tg-relay/internal/infra/config"
	httpinfra "tg-relay/internal/infra/http"
	"tg-relay/internal/infra/log"
	"tg-relay/internal/infra/metrics"
	"tg-relay/internal/usecase/ledger"
	"tg-relay/internal/usecase/recipients"
	"tg-relay/internal/usecase/router"
)

func main() {
	var (
		cfgPath      string
		dbPath       string
		authMode     string
		authPassword string
		token        string
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Релей между локальными процессами и телеграм-чатом",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			// Флаги — поверх файла и окружения.
			if cmd.Flags().Changed("database") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("auth-mode") {
				cfg.Auth.Mode = authMode
			}
			if cmd.Flags().Changed("auth-password") {
				cfg.Auth.Password = authPassword
			}
			if cmd.Flags().Changed("token") {
				cfg.Token = token
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "/workspace/tgcli_config.json", "путь к JSON-конфигу")
	cmd.Flags().StringVarP(&dbPath, "database", "d", "", "путь к базе получателей")
	cmd.Flags().StringVarP(&authMode, "auth-mode", "a", "userlist", "режим авторизации: userlist или password")
	cmd.Flags().StringVarP(&authPassword, "auth-password", "p", "", "пароль для режима password")
	cmd.Flags().StringVarP(&token, "token", "t", "", "токен телеграм-бота")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.AppConfig) error {
	logger := log.NewLogger(cfg.AppEnv, cfg.Debug)
	logger.Info().Str("auth_mode", cfg.Auth.Mode).Str("addr", cfg.ListenAddr()).Msg("запуск релея")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := recipients.Load(cfg.DBPath, cfg.Auth.Users, logger.With().Str("component", "recipients").Logger())
	replyLedger := ledger.New(cfg.Ledger.Retention, logger.With().Str("component", "ledger").Logger())

	transport, err := telegram.NewTransport(cfg.Token, cfg.TransportTimeout, logger.With().Str("component", "telegram").Logger())
	if err != nil {
		return err
	}

	routerUC := router.NewService(transport, replyLedger, store, cfg.ChatID, logger.With().Str("component", "router").Logger())
	botHandler := bot.NewHandler(transport.Bot(), logger.With().Str("component", "bot").Logger(), store, routerUC, domain.AuthMode(cfg.Auth.Mode), cfg.Auth.Password)

	go botHandler.Run(ctx)
	go ledger.RunSweeper(ctx, replyLedger, cfg.Ledger.SweepInterval, logger.With().Str("component", "sweeper").Logger())
	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	// Полная латентность запроса ограничена таймаутом транспорта
	// плюс небольшой запас на обработку.
	srv := httpinfra.NewServer(logger.With().Str("component", "api").Logger(), cfg.TransportTimeout+5*time.Second)
	api.NewHandler(routerUC, logger.With().Str("component", "api").Logger()).Register(srv.Router)

	go func() {
		if err := srv.Start(cfg.ListenAddr()); err != nil {
			logger.Error().Err(err).Msg("локальный API остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка релея")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return nil
}

var _ domain.Transport = (*telegram.Transport)(nil)
var _ domain.ActiveList = (*recipients.Store)(nil)
var _ domain.Ledger = (*ledger.Ledger)(nil)
