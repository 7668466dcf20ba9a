package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakeshore-ultimate/tally/internal/api"
	"github.com/lakeshore-ultimate/tally/internal/chat"
	"github.com/lakeshore-ultimate/tally/internal/classifier"
	"github.com/lakeshore-ultimate/tally/internal/config"
	"github.com/lakeshore-ultimate/tally/internal/dedup"
	"github.com/lakeshore-ultimate/tally/internal/openai"
	"github.com/lakeshore-ultimate/tally/internal/recorder"
	"github.com/lakeshore-ultimate/tally/internal/report"
	"github.com/lakeshore-ultimate/tally/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "tally tracks the team's point challenge from the chat channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Listen for channel messages and record activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Dump every raw ledger record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return show()
	},
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print the leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return scores()
	},
}

func main() {
	rootCmd.AddCommand(runCmd, showCmd, scoresCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("tally starting", "port", cfg.Port, "channel", cfg.Channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database connected")

	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	llm := openai.NewClient(cfg.OpenAIAPIKey, cfg.Model)
	slog.Info("openai client ready", "model", cfg.Model)

	cl := classifier.New(llm, slog.Default())
	guard := dedup.New(db, slog.Default())
	gateway := chat.NewGateway(cfg.GatewayURL, cfg.GatewayToken, slog.Default())

	rec := recorder.New(recorder.Config{
		Channel:         cfg.Channel,
		BotHandle:       cfg.BotHandle,
		Timezone:        loc,
		ClassifyTimeout: cfg.ClassifyTimeout,
	}, db, cl, guard, gateway, slog.Default())

	reporter := report.New(db)

	natsClient, err := chat.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer natsClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	if err := natsClient.Subscribe(chat.SubjectMessageCreated, rec.HandleMessageEvent); err != nil {
		return fmt.Errorf("subscribe to message events: %w", err)
	}
	if err := natsClient.Subscribe(chat.SubjectScoresCommand, scoresHandler(reporter, gateway, cfg.Channel)); err != nil {
		return fmt.Errorf("subscribe to scores command: %w", err)
	}

	srv := api.NewServer(cfg.Port, reporter, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Replay channel history before trusting live delivery alone; the
	// replay guard makes reprocessing a no-op for anything already logged.
	go replayHistory(ctx, cfg, gateway, rec)

	slog.Info("tally ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("tally stopped")
	return nil
}

func show() error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.All(ctx)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	for _, rec := range recs {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\t%d\n",
			rec.ID, rec.UserID, rec.Date, rec.MessageRef, rec.Type, rec.Points)
	}
	return nil
}

func scores() error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx := context.Background()
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	table, err := report.New(db).Table(ctx)
	if err != nil {
		return err
	}
	fmt.Println(table)
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func replayHistory(ctx context.Context, cfg config.Config, gateway *chat.Gateway, rec *recorder.Recorder) {
	after, err := time.Parse("2006-01-02", cfg.ReplayAfter)
	if err != nil {
		slog.Error("invalid TALLY_REPLAY_AFTER, skipping replay", "value", cfg.ReplayAfter, "error", err)
		return
	}

	events, err := gateway.History(ctx, cfg.Channel, after)
	if err != nil {
		slog.Error("history replay failed", "error", err)
		return
	}
	slog.Info("replaying channel history", "messages", len(events), "after", cfg.ReplayAfter)

	for _, evt := range events {
		if ctx.Err() != nil {
			return
		}
		if err := rec.Process(ctx, evt.Message()); err != nil {
			slog.Error("replay processing failed", "message_ref", evt.ID, "error", err)
		}
	}
	slog.Info("history replay complete")
}

func scoresHandler(reporter *report.Reporter, gateway *chat.Gateway, channel string) func(string, []byte) {
	return func(subject string, data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		table, err := reporter.Table(ctx)
		if err != nil {
			slog.Error("failed to build standings", "error", err)
			return
		}
		if err := gateway.PostMessage(ctx, channel, table); err != nil {
			slog.Error("failed to post standings", "error", err)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
