package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pthm-cable/springsoup/config"
	"github.com/pthm-cable/springsoup/game"
	"github.com/pthm-cable/springsoup/headless"
	"github.com/pthm-cable/springsoup/renderer"
	"github.com/pthm-cable/springsoup/server"
	"github.com/pthm-cable/springsoup/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headlessMode := flag.Bool("headless", false, "Run without a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config value, or time-based if that is 0)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	serve := flag.Bool("serve", false, "Start the HTTP/websocket control server")
	addr := flag.String("addr", "", "Server listen address (empty = use config)")
	realtime := flag.Bool("realtime", false, "Pace headless steps to wall-clock time")
	pngDir := flag.String("png-dir", "", "Headless: directory for PNG frames (empty = off)")
	pngEvery := flag.Int("png-every", 60, "Headless: ticks between PNG frames")
	scenePath := flag.String("scene", "", "Scene file to load at start")
	sceneDir := flag.String("scene-dir", "", "Directory for saved scenes (bookmarks and F5)")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := game.Options{
		Logger:   logger,
		Metrics:  telemetry.NewMetrics(reg),
		Output:   output,
		LogStats: *logStats,
		SceneDir: *sceneDir,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headlessMode {
		w := game.NewWorld(cfg, opts)
		loadScene(w, *scenePath)
		startServer(ctx, *serve, *addr, cfg, w, reg, logger)
		runHeadless(ctx, w, *maxTicks, *realtime, *pngDir, *pngEvery)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Spring Soup")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	opts.ViewportW = float64(rl.GetScreenWidth())
	opts.ViewportH = float64(rl.GetScreenHeight())
	w := game.NewWorld(cfg, opts)
	loadScene(w, *scenePath)
	startServer(ctx, *serve, *addr, cfg, w, reg, logger)

	fe := renderer.NewFrontend(w, logger)
	fe.SceneDir = *sceneDir
	fe.Run(*maxTicks)
	w.LogWorldState()
}

// loadScene restores a saved scene. Partial restores are logged and kept.
func loadScene(w *game.World, path string) {
	if path == "" {
		return
	}
	sc, err := game.LoadScene(path)
	if err != nil {
		slog.Error("failed to load scene", "error", err)
		os.Exit(1)
	}
	if err := w.RestoreScene(sc); err != nil {
		slog.Warn("scene restored with losses", "path", path, "error", err)
	}
}

// startServer runs the control server in the background when enabled.
func startServer(ctx context.Context, enabled bool, addr string, cfg *config.Config, w *game.World, reg *prometheus.Registry, logger *slog.Logger) {
	if !enabled {
		return
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.New(server.Config{
		Addr:        addr,
		BroadcastHz: cfg.Server.BroadcastHz,
		RouterConfig: server.RouterConfig{
			Engine:      w,
			Gatherer:    reg,
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger,
		},
	})
	if _, err := srv.Start(ctx); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps the world without graphics until ctx is cancelled or
// maxTicks is reached.
func runHeadless(ctx context.Context, w *game.World, maxTicks int, realtime bool, pngDir string, pngEvery int) {
	cfg := w.Config()

	var frames *headless.FrameWriter
	if pngDir != "" {
		var err error
		frames, err = headless.NewFrameWriter(pngDir, pngEvery,
			headless.NewRenderer(cfg.Screen.Width, cfg.Screen.Height, cfg.Render.PointSize))
		if err != nil {
			slog.Error("failed to set up frame output", "error", err)
			os.Exit(1)
		}
	}

	var pace <-chan time.Time
	if realtime {
		ticker := time.NewTicker(time.Duration(cfg.Physics.DT * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	slog.Info("starting headless simulation",
		"seed", cfg.Seed,
		"max_ticks", maxTicks,
		"realtime", realtime,
		"png_dir", pngDir,
	)

	for {
		if pace != nil {
			select {
			case <-ctx.Done():
				w.LogWorldState()
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			w.LogWorldState()
			return
		}

		w.Update()

		if frames != nil {
			if _, err := frames.MaybeWrite(w.Latest()); err != nil {
				slog.Error("failed to write frame", "error", err)
			}
		}
		if maxTicks > 0 && int(w.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", w.Tick())
			w.LogWorldState()
			return
		}
	}
}
