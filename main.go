package main

import (
	"context"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"log"
	"os"
	"os/signal"
	"parcel-status-relay/adapters/slackbot"
	"parcel-status-relay/config"
	"parcel-status-relay/core"
	"parcel-status-relay/server"
	"parcel-status-relay/workers/tracking"
	"parcel-status-relay/workers/tracking/repositories"
	"syscall"
	"time"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := core.NewLogger(*cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	// Wait for termination signal to exit gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := core.NewMetrics()

	processor, err := tracking.NewProcessor(logger, cfg.Tracking)
	if err != nil {
		logger.Fatal("Failed to create tracking processor", zap.Error(err))
	}

	opts := []tracking.Option{tracking.WithMetrics(metrics)}
	var history server.NotificationLister
	if cfg.DSN != "" {
		db, err := core.OpenDatabase(ctx, cfg.DSN)
		if err != nil {
			logger.Fatal("Failed to open database", zap.Error(err))
		}
		repo := repositories.NewRepository(db)
		if err := repo.Migrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		opts = append(opts, tracking.WithJournal(repo))
		history = repo
	}

	var notifier tracking.Notifier = tracking.NewLogNotifier(logger)
	var api *slack.Client
	botUserID := ""
	if cfg.Slack.Enabled() {
		api = slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
		auth, err := api.AuthTestContext(ctx)
		if err != nil {
			logger.Fatal("Slack authentication failed", zap.Error(err))
		}
		botUserID = auth.UserID
		notifier = slackbot.NewNotifier(logger, api)
	} else {
		logger.Warn("SLACK_BOT_TOKEN not set, notifications will only be logged")
	}

	worker := tracking.NewWorker(logger, cfg.Tracking, processor, notifier, cfg.Slack.Channel, opts...)

	logger.Info("Starting parcel status relay",
		zap.String("tracking_number", cfg.Tracking.Number),
		zap.String("adapter", processor.Name()),
		zap.String("schedule", cfg.Tracking.Schedule),
	)

	g, gctx := errgroup.WithContext(ctx)

	if api != nil && cfg.Slack.AppToken != "" {
		trigger := slackbot.NewTrigger(cfg.Slack.TriggerPhrase, cfg.Slack.TriggerOnMention)
		listener := slackbot.NewListener(logger, worker, api, cfg.Slack.Command, trigger, botUserID)
		g.Go(func() error {
			return listener.Run(gctx, socketmode.New(api))
		})
	}

	if cfg.HTTPAddr != "" {
		srv := server.New(logger, worker, history, metrics, cfg.Slack.SigningSecret)
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.HTTPAddr)
		})
	}

	orchestrator := core.NewOrchestrator(logger, []core.Worker{worker})
	if err := orchestrator.Start(gctx); err != nil {
		logger.Fatal("Failed to start orchestrator", zap.Error(err))
	}

	<-gctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := orchestrator.Stop(shutdownCtx); err != nil {
		logger.Warn("Orchestrator did not stop cleanly", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		logger.Error("Exited with error", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
