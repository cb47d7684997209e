package main

import (
	"flag"
	"log"
	"os"

	"github.com/IanaraFer/dataSite-sub000/internal/di"
	"github.com/IanaraFer/dataSite-sub000/pkg/config"
)

func main() {
	configPath := flag.String("config", os.Getenv("SMEF_CONFIG"), "config file path; empty uses defaults and SMEF_* env")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM.
	err = app.Run()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}
