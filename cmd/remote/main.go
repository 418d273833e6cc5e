package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/api"
	"github.com/IlyasAtabaev731/khata/internal/config"
	"github.com/IlyasAtabaev731/khata/internal/lib/logctx"
	"github.com/IlyasAtabaev731/khata/internal/lib/logger"
	"github.com/IlyasAtabaev731/khata/internal/storage/mongodb"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env, os.Stdout)

	log.Info("Starting sync endpoint",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("database", cfg.Mongo.Database),
	)

	connectCtx, cancel := context.WithTimeout(logctx.WithLogger(context.Background(), log), 10*time.Second)
	client, err := mongodb.Connect(connectCtx, cfg.Mongo.URI)
	cancel()
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("Failed to disconnect from database", "error", err)
		}
	}()

	repo := mongodb.NewRepository(mongodb.NewProvider(client, cfg.Mongo.Database))

	apiServer := api.New(cfg, log, repo)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
}
