package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"quizgenius/internal/config"
	"quizgenius/internal/httpapi"
	"quizgenius/internal/leaderboard"
	"quizgenius/internal/llm"
	"quizgenius/internal/logger"
	"quizgenius/internal/metrics"
	"quizgenius/internal/profile/sqlite"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	addr := flag.String("addr", cfg.Server.Addr, "HTTP listen address")
	flag.Parse()

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := sqlite.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	serviceOpts := []stats.Option{}
	var board httpapi.GauntletBoard
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		pingErr := client.Ping(pingCtx).Err()
		cancel()
		if pingErr != nil {
			log.Warn("redis unreachable, gauntlet leaderboard disabled", "addr", cfg.Redis.Addr, "error", pingErr)
		} else {
			redisBoard := leaderboard.NewRedisLeaderboard(client)
			serviceOpts = append(serviceOpts, stats.WithLeaderboard(redisBoard))
			board = redisBoard
		}
	}

	if cfg.LLM.APIKey == "" {
		log.Warn("AWAN_LLM_API_KEY is not set; quiz generation will fail")
	}
	generator := quiz.NewGenerator(llm.NewClient(cfg.LLM, nil, log), cfg.LLM.Temperature, log, m)
	statsService := stats.NewService(store, log, m, serviceOpts...)

	server := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(httpapi.NewAPI(generator, statsService, board, log, m)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("quizgenius-service listening", "addr", *addr, "env", cfg.Server.Env, "db", cfg.Store.Path, "leaderboard", board != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
