// Command priceladder runs the ladder core against the synthetic feed,
// exposing prometheus metrics and logging top-of-book on every flush.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitcex/priceladder/internal/book"
	"github.com/orbitcex/priceladder/internal/config"
	"github.com/orbitcex/priceladder/internal/feedsim"
	"github.com/orbitcex/priceladder/internal/ladder"
	"github.com/orbitcex/priceladder/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	tick, err := cfg.Ladder.Tick()
	if err != nil {
		return err
	}
	core := ladder.New(ladder.Options{
		MaxLevels:     cfg.Ladder.MaxLevels,
		VisibleLevels: cfg.Ladder.VisibleLevels,
		RingCapacity:  cfg.Ladder.RingCapacity,
		FillEmpty:     cfg.Ladder.FillEmpty,
		TickSize:      tick,
		StrictOrders:  cfg.Ladder.StrictOrders,
		Logger:        log,
	})
	core.OnSnapshot(func(snap *book.Snapshot) {
		fields := []zap.Field{
			zap.Uint64("seq", snap.Seq),
			zap.Int("bids", len(snap.Bids)),
			zap.Int("asks", len(snap.Asks)),
		}
		if snap.HasMid {
			fields = append(fields, zap.String("mid", snap.MidPrice.String()))
		}
		log.Debug("snapshot", fields...)
	})
	if cfg.Sim.MBO {
		core.SetDataMode(ladder.ModeMBO)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	base, _ := decimal.NewFromString(cfg.Sim.BasePrice)
	simTick, err := decimal.NewFromString(cfg.Sim.TickSize)
	if err != nil {
		return fmt.Errorf("sim.tick_size: %w", err)
	}
	gen := feedsim.New(cfg.Sim.Seed, base, simTick, cfg.Ladder.VisibleLevels)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rate := cfg.Sim.UpdatesPerSec
	if rate <= 0 {
		rate = 1000
	}
	interval := time.Second / time.Duration(rate)
	if interval <= 0 {
		interval = time.Microsecond
	}
	produce := time.NewTicker(interval)
	defer produce.Stop()
	flushEvery := cfg.Sim.FlushInterval
	if flushEvery <= 0 {
		flushEvery = 16 * time.Millisecond
	}
	flush := time.NewTicker(flushEvery)
	defer flush.Stop()

	log.Info("price ladder running",
		zap.Bool("mbo", cfg.Sim.MBO),
		zap.Int("updates_per_sec", cfg.Sim.UpdatesPerSec))

	for {
		select {
		case <-ctx.Done():
			core.ClearPendingUpdates()
			core.Stop()
			stats := core.Statistics()
			log.Info("shutting down",
				zap.Uint64("updates", stats.TotalUpdates),
				zap.Uint64("batches", stats.BatchCount),
				zap.Float64("avg_batch", stats.AvgUpdatesPerBatch))
			return nil
		case <-produce.C:
			if cfg.Sim.MBO {
				u, typ := gen.NextOrder()
				if err := core.ProcessOrderUpdateNoFlush(u, typ); err != nil {
					log.Warn("order update rejected", zap.Error(err))
				}
			} else {
				if err := core.ProcessPriceLevelUpdateNoFlush(gen.NextLevel()); err != nil {
					log.Warn("level update rejected", zap.Error(err))
				}
			}
		case <-flush.C:
			if _, err := core.Flush(ctx); err != nil {
				log.Warn("flush failed", zap.Error(err))
			}
		}
	}
}
