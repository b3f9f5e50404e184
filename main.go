package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"WordLeap/app/clients"
	"WordLeap/app/configs"
	"WordLeap/app/oracle"
	"WordLeap/app/restclient"
	"WordLeap/app/sentence"
	"WordLeap/app/server"
	"WordLeap/app/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		log.Printf("ℹ️ No config at %s (%v), using defaults", configPath, err)
		cfg = configs.Default()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	db := storage.NewSQLiteStorage()
	defer db.Close()

	rc := restclient.NewRestClient(cfg.Oracle.BaseURL, nil, cfg.OracleTimeout())
	wordOracle := oracle.NewClient(rc, cfg.Oracle.Model, cfg.Oracle.Temperature, cfg.Oracle.MaxTokens)
	controller := sentence.NewController(wordOracle, db, cfg.SettleDelay())

	ctx := context.Background()
	if err := controller.Resume(ctx); err != nil {
		log.Printf("⚠️ Could not resume stored credential: %v", err)
	}

	if cfg.Server.Enabled {
		server.New(wordOracle, cfg.Server.Port).Start()
	}

	clientRegistry := clients.NewRegistry()
	if err := cfg.InitializeClients(clientRegistry, controller); err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer clientRegistry.CloseAll()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("👋 Shutting down")
}
