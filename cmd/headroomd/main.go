package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/headroom-sh/headroom/internal/infrastructure/config"
	"github.com/headroom-sh/headroom/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	port := flag.String("port", "", "Override HTTP port")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		// Best-effort cleanup so no process stays frozen.
		_ = srv.Close()
		log.Fatalf("Server error: %v", err)
	}
}
