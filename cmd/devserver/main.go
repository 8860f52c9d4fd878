package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"banas-client/internal/config"
	"banas-client/internal/devserver"
	"banas-client/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.DevServer.Port = *port
	}

	logger := logging.New(cfg.Log.Level, os.Stderr)
	log := logging.Component(logger, "devserver")

	srv, err := devserver.New(cfg, nil, log)
	if err != nil {
		log.WithError(err).Error("failed to start dev server")
		return 1
	}

	addr := fmt.Sprintf(":%d", cfg.DevServer.Port)
	log.Infof("API at http://localhost%s%s, sign in as %s / %s", addr, devserver.APIPrefix, devserver.SeedUsername, devserver.SeedPassword)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		log.WithError(err).Error("dev server stopped")
		return 1
	}
	return 0
}
