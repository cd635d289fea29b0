// Package main provides the authoritative simulation server: it spawns the
// configured firearms, runs the tick loop, accepts commands over HTTP and
// publishes snapshots on the websocket feed.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/config"
	"github.com/cory-johannsen/gunfeed/internal/feed"
	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
	"github.com/cory-johannsen/gunfeed/internal/game/random"
	"github.com/cory-johannsen/gunfeed/internal/gameserver"
	"github.com/cory-johannsen/gunfeed/internal/observability"
	"github.com/cory-johannsen/gunfeed/internal/replication"
	"github.com/cory-johannsen/gunfeed/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	copies := flag.Int("copies", 1, "instances to spawn per firearm definition")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting gunserver", observability.ConfigFields(cfg)...)

	defs, err := firearm.LoadDefs(cfg.Content.FirearmsDir)
	if err != nil {
		logger.Fatal("loading firearm definitions", zap.Error(err))
	}
	registry := firearm.NewRegistry()
	for _, d := range defs {
		if err := registry.Register(d); err != nil {
			logger.Fatal("registering firearm", zap.Error(err))
		}
	}

	armory := gameserver.NewArmory()
	for _, d := range registry.All() {
		for i := 0; i < *copies; i++ {
			id, err := armory.Spawn(d)
			if err != nil {
				logger.Fatal("spawning firearm", zap.String("def", d.ID), zap.Error(err))
			}
			logger.Info("firearm spawned",
				zap.Stringer("id", id),
				zap.String("def", d.ID),
				zap.String("mechanism", string(d.Mechanism)),
			)
		}
	}

	codec, err := replication.NewCodec(cfg.Replication.Compression, cfg.Replication.MaxPayloadBytes)
	if err != nil {
		logger.Fatal("creating codec", zap.Error(err))
	}
	defer codec.Close()

	src := random.NewLoggedSource(random.FromSeed(cfg.Simulation.Seed), logger)
	ctrl := fire.NewController(src, logger)
	hub := feed.NewHub(cfg.Feed.WriteTimeout, logger)
	sim := gameserver.NewSimulation(
		armory,
		ctrl,
		codec,
		gameserver.NewLogExecutor(logger),
		hub,
		cfg.Simulation.TickInterval,
		cfg.Simulation.CommandBuffer,
		logger,
	)
	hub.OnJoin(sim.RequestResync)

	mux := http.NewServeMux()
	mux.Handle(cfg.Feed.Path, hub)
	commands := gameserver.NewCommandHandler(sim, logger)
	mux.Handle("/firearms", commands)
	mux.Handle("/firearms/", commands)

	lc := server.NewLifecycle(logger)
	lc.Add("simulation", server.NewContextService(func(ctx context.Context) error {
		sim.Start(ctx)
		<-ctx.Done()
		return nil
	}))
	lc.Add("feed", server.NewHTTPService(cfg.Feed.Addr(), mux, logger))
	lc.Add("hub", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  hub.Close,
	})

	logger.Info("gunserver ready",
		zap.Int("firearms", armory.Len()),
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(context.Background()); err != nil {
		logger.Error("gunserver stopped with error", zap.Error(err))
	}
	logger.Info("gunserver stopped", zap.Uint64("ticks", sim.Ticks()))
}
