package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/internal/httpserver"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore/sqlite"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "Listen address")
		configPath   = flag.String("config", "", "YAML config file (optional)")
		mappingsPath = flag.String("mappings", "", "Learned mappings JSON file (overrides config)")
		dbPath       = flag.String("db", "", "SQLite mappings database (overrides -mappings)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *mappingsPath != "" {
		cfg.MappingsPath = *mappingsPath
	}

	ctx := context.Background()

	var store mapstore.Store
	if *dbPath != "" {
		store, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		store = mapstore.OpenFile(cfg.MappingsPath, logger)
	}
	defer store.Close()

	proc := ctr.New(cfg, store, ctr.NewClassifier(cfg, logger), logger)
	srv := httpserver.New(proc, logger)

	logger.Info("listening", "addr", *addr)
	if err := srv.Router().Run(*addr); err != nil {
		log.Fatal(err)
	}
}
