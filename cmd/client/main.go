package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arena-client/internal/audio"
	"arena-client/internal/chat"
	"arena-client/internal/client"
	"arena-client/internal/config"
	"arena-client/internal/display"
	"arena-client/internal/input"
	"arena-client/internal/logging"
	"arena-client/internal/netclient"
	"arena-client/internal/render"
	"arena-client/internal/session"
	"arena-client/internal/telemetry"
)

// gameOverLinger keeps the final frame on screen before exiting.
const gameOverLinger = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "arena: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file (default $ARENA_CONFIG or arena.yaml)")
	headless := flag.Bool("headless", false, "run without a window")
	name := flag.String("name", "", "player name (overrides config)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("ARENA_CONFIG", *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *name != "" {
		cfg.Network.PlayerName = *name
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	log.Info("🎮 ================================")
	log.Info("🎮  ARENA CLIENT")
	log.Info("🎮 ================================")
	log.Info("📡 server", zap.String("url", cfg.Network.ServerURL), zap.String("name", cfg.Network.PlayerName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Telemetry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	// Audio
	player := audio.New(cfg.Audio, log)
	if err := player.Start(); err != nil {
		log.Warn("⚠️ audio disabled", zap.Error(err))
	}
	defer player.Close()

	// Rendering and world state
	stage, err := render.NewStage(cfg.Viewport.Width, cfg.Viewport.Height,
		render.WithLogger(log),
		render.WithRenderObserver(metrics.RecordRender))
	if err != nil {
		return fmt.Errorf("create stage: %w", err)
	}

	sess := session.New(session.Config{
		Width:          float64(cfg.Viewport.Width),
		Height:         float64(cfg.Viewport.Height),
		ArenaRadius:    cfg.Arena.Radius,
		BoundaryRadius: cfg.Arena.BoundaryRadius(),
		TintBase:       cfg.Arena.TintBase,
		FadeStep:       cfg.Fade.Step,
	}, stage, stage,
		session.WithLogger(log),
		session.WithObserver(metrics),
		session.WithHooks(session.Hooks{
			OnDespawn:  player.OnDespawn,
			OnGameOver: player.OnGameOver,
		}))

	// Network
	conn := netclient.New(cfg.Network, netclient.WithLogger(log), netclient.WithObserver(metrics))
	history := chat.NewLog(chat.DefaultCapacity)
	loop := client.New(sess, history, conn, cfg.Network.InboxSize, log)

	controls := &input.State{}
	sender := input.NewSender(cfg.Input, controls, conn, loop.Active, log)
	composer := chat.NewComposer(history, conn, chat.DefaultRateLimitConfig)

	debug := telemetry.NewServer(cfg.Debug, telemetry.NewRouter(telemetry.RouterConfig{
		Gatherer: reg,
		Session:  sess,
		Net:      conn,
		RunID:    runID,
		Origins:  cfg.Debug.AllowedOrigins,
		Logger:   log,
	}), log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	conn.OnMessage(loop.Handler(gctx))
	conn.OnConnect(func() { history.Add(fmt.Sprintf("Joining as %s...", conn.Name())) })
	conn.OnDisconnect(func() {
		if err := loop.Disconnected(gctx); err != nil {
			log.Debug("session reset skipped", zap.Error(err))
		}
	})
	g.Go(func() error { return ignoreCanceled(conn.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(sender.Run(gctx)) })
	g.Go(func() error { return debug.Run(gctx) })
	g.Go(func() error {
		select {
		case <-sess.Done():
		case <-gctx.Done():
			return nil
		}
		log.Info("💀 game over, exiting", zap.Duration("after", gameOverLinger))
		select {
		case <-time.After(gameOverLinger):
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if *headless {
		g.Go(func() error { return ignoreCanceled(loop.Run(gctx, cfg.Viewport.TPS)) })
	} else {
		// ebiten must own the main goroutine.
		game := display.New(gctx, loop, stage, controls, composer, log)
		if err := display.Run(cfg.Viewport, game); err != nil {
			log.Error("❌ display failed", zap.Error(err))
		}
		cancel()
	}

	err = g.Wait()
	s := sess.Stats()
	log.Info("🛑 client stopped",
		zap.Uint64("cycles", s.Cycles),
		zap.Uint64("skipped", s.Skipped),
		zap.Uint64("malformed", s.Malformed),
		zap.Bool("game_over", s.GameOver))
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
