// Package main provides the viewer: it subscribes to the simulation feed,
// keeps a replica of every firearm and logs the sounds a client would play.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/config"
	"github.com/cory-johannsen/gunfeed/internal/feed"
	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/observability"
	"github.com/cory-johannsen/gunfeed/internal/replication"
	"github.com/cory-johannsen/gunfeed/internal/server"
)

type logSink struct {
	logger *zap.Logger
}

func (s logSink) PlaySound(k fire.SoundKind) {
	s.logger.Info("play sound", zap.Stringer("sound", k))
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	url := flag.String("url", "", "feed URL; empty derives it from the feed config")
	status := flag.Duration("status", 5*time.Second, "interval between replica summaries; 0 disables")
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

	if *url == "" {
		*url = cfg.Feed.URL()
	}

	codec, err := replication.NewCodec(cfg.Replication.Compression, cfg.Replication.MaxPayloadBytes)
	if err != nil {
		logger.Fatal("creating codec", zap.Error(err))
	}
	defer codec.Close()

	mirror := replication.NewMirror(codec, logSink{logger: logger}, logger)

	lc := server.NewLifecycle(logger)
	retry := feed.Retry{Initial: cfg.Feed.RetryInitial, Max: cfg.Feed.RetryMax}
	lc.Add("subscription", server.NewContextService(func(ctx context.Context) error {
		logger.Info("subscribing", zap.String("url", *url))
		// Every connection opens with a full resync; start from empty replicas.
		return feed.Follow(ctx, *url, retry, logger, mirror.Reset, func(payload []byte) {
			id, changed := mirror.Receive(payload)
			if changed.Any() {
				logger.Debug("replica changed", zap.Stringer("firearm", id), zap.Stringer("fields", changed))
			}
		})
	}))
	if *status > 0 {
		lc.Add("status", server.NewContextService(func(ctx context.Context) error {
			ticker := time.NewTicker(*status)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					logReplicas(logger, mirror)
				}
			}
		}))
	}

	if err := lc.Run(context.Background()); err != nil {
		logger.Error("gunwatch stopped with error", zap.Error(err))
	}
	logReplicas(logger, mirror)
}

func logReplicas(logger *zap.Logger, mirror *replication.Mirror) {
	for _, id := range mirror.IDs() {
		view, seq, ok := mirror.Replica(id)
		if !ok {
			continue
		}
		logger.Info("replica",
			zap.Stringer("firearm", id),
			zap.Uint64("sequence", seq),
			zap.String("mechanism", string(view.Kind())),
			zap.Any("view", view),
		)
	}
}
