// Command prebuild refreshes the catalog snapshot from the order backend
// before the storefront is built. A failed fetch keeps the existing files and
// still exits 0, so a build never breaks on an unreachable backend.
package main

import (
	"context"
	"flag"

	"github.com/pesansayur/storefront/internal/backend"
	"github.com/pesansayur/storefront/internal/catalog"
	"github.com/pesansayur/storefront/internal/config"
	"github.com/pesansayur/storefront/pkg/logger"
)

func main() {
	cfg := config.Load()
	dir := flag.String("dir", cfg.DataDir, "directory the snapshot files are written to")
	flag.Parse()

	log := logger.New("prebuild", logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, nil)
	if !client.Configured() {
		log.Warn().Msg("BACKEND_URL not set, keeping existing catalog files")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.BackendTimeout)
	defer cancel()

	if err := catalog.Fetch(ctx, client, *dir, log); err != nil {
		log.Warn().Err(err).Str("dir", *dir).Msg("catalog fetch failed, keeping existing files")
		return
	}
	log.Info().Str("dir", *dir).Msg("catalog snapshot updated")
}
