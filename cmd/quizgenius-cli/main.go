package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"quizgenius/internal/cli"
	"quizgenius/internal/config"
	"quizgenius/internal/llm"
	"quizgenius/internal/logger"
	"quizgenius/internal/profile"
	"quizgenius/internal/profile/sqlite"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
	"quizgenius/internal/userclient"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	topic := flag.String("topic", "", "quiz topic (required)")
	difficulty := flag.String("difficulty", "", "easy, medium, hard or expert; defaults to the user's preference")
	count := flag.Int("count", 0, "number of questions; defaults to the user's preferred quiz length")
	style := flag.String("style", "", "conceptual, practical or mixed")
	user := flag.String("user", "", "user id to record results under")
	gauntlet := flag.Bool("gauntlet", false, "play a timed gauntlet run")
	db := flag.String("db", "", "sqlite profile database; in-memory when empty")
	server := flag.String("server", "", "use a running quizgenius service instead of calling the model directly")
	timeout := flag.Duration("timeout", 90*time.Second, "HTTP timeout for -server")
	flag.Parse()

	if *topic == "" {
		return fmt.Errorf("-topic is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cli.Options{
		UserID:   *user,
		Gauntlet: *gauntlet,
		Request: quiz.GenerateRequest{
			Topic:             *topic,
			Difficulty:        *difficulty,
			NumberOfQuestions: *count,
			PreferredStyle:    *style,
		},
	}

	if *server != "" {
		client := userclient.NewHTTPClient(*server, &http.Client{Timeout: *timeout})
		opts.Source = client
		opts.Recorder = client
		opts.Board = client
		opts.Preferences = client
		return cli.Run(ctx, os.Stdin, os.Stdout, opts)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	var store profile.Store = profile.NewMemoryStore()
	if *db != "" {
		sqliteStore, err := sqlite.NewSQLiteStore(*db)
		if err != nil {
			return fmt.Errorf("open profile store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	opts.Source = quiz.NewGenerator(llm.NewClient(cfg.LLM, nil, log), cfg.LLM.Temperature, log, nil)
	service := stats.NewService(store, log, nil)
	opts.Recorder = service
	opts.Preferences = service
	return cli.Run(ctx, os.Stdin, os.Stdout, opts)
}
