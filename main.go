package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lab1702/subwar/api"
	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/sim"
	"github.com/lab1702/subwar/world"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional; defaults otherwise)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log.Printf("Starting subwar server on %s (tick rate %.1fHz)", cfg.Server.Addr, cfg.Server.TickRate)

	store, err := world.OpenStore(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	w, err := world.NewWorld(store)
	if err != nil {
		log.Fatalf("load world: %v", err)
	}
	if len(w.Clouds) == 0 {
		w.Clouds = world.GenerateInitialClouds(&cfg.Weather, cfg.World.RingCenterX, cfg.World.RingCenterY, cfg.World.RingRadiusM)
	}

	fabric := events.NewFabric(cfg.Events.QueueCapacity)
	engine := sim.NewEngine(w, cfg, fabric)

	stopTick := make(chan struct{})
	go engine.Run(stopTick)

	server := api.NewServer(w, cfg, fabric, engine)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()
	log.Printf("Control API listening on %s", cfg.Server.Addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Shutting down (signal: %v)...", sig)

	close(stopTick)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("subwar server stopped")
	os.Exit(0)
}
