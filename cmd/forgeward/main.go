// Command forgeward runs the blacksmith shop simulation headless,
// serving the browser frontend over the HTTP API.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ironquill/forgeward/internal/api"
	"github.com/ironquill/forgeward/internal/engine"
	"github.com/ironquill/forgeward/internal/entropy"
	"github.com/ironquill/forgeward/internal/persistence"
)

func main() {
	cfg := engine.DefaultConfig()
	var (
		loadSlot string
		seed     uint64
	)
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "save database path")
	flag.IntVar(&cfg.APIPort, "port", cfg.APIPort, "HTTP API port")
	flag.StringVar(&loadSlot, "load", persistence.AutoSlot, "save slot to resume from")
	flag.Uint64Var(&seed, "seed", cfg.Seed, "simulation seed")
	flag.Float64Var(&cfg.GameMinutesPerSecond, "time-scale", cfg.GameMinutesPerSecond, "game minutes per real second")
	flag.Parse()
	cfg.Seed = seed
	cfg.AdminKey = os.Getenv("FORGEWARD_ADMIN_KEY")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("forgeward starting")

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	saves, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open save database", "error", err)
		os.Exit(1)
	}
	defer saves.Close()
	slog.Info("save database opened", "path", cfg.DBPath)

	// random.org tops up the entropy pool when an API key is set;
	// otherwise the seeded source runs alone.
	var rng entropy.Source = entropy.NewSource(cfg.Seed)
	if pool := entropy.NewPoolClient(os.Getenv("RANDOM_ORG_KEY")); pool != nil {
		rng = pool
		slog.Info("using random.org entropy pool")
	}

	shop := engine.NewShop(cfg, rng, saves)
	if loaded, err := shop.Load(loadSlot); err != nil {
		slog.Error("load failed", "slot", loadSlot, "error", err)
		os.Exit(1)
	} else if loaded {
		slog.Info("resumed saved game", "slot", loadSlot,
			"day", shop.Clock.Day(), "money", shop.Ledger.Money())
	} else {
		shop.NewGame()
	}

	eng := engine.NewEngine()
	eng.OnTick = shop.Tick

	server := &api.Server{
		Shop:     shop,
		Eng:      eng,
		Port:     cfg.APIPort,
		AdminKey: cfg.AdminKey,
	}
	server.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		slog.Info("shutting down, saving...")
		eng.Stop()
	}()

	eng.Run()

	if err := shop.Save(persistence.AutoSlot); err != nil {
		slog.Error("final save failed", "error", err)
	}
}
