package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Project-Sylos/Arbor/internal/api"
	"github.com/Project-Sylos/Arbor/sdk"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	// Load configuration
	configPath := getConfigPath()

	var (
		arbor *sdk.Arbor
		err   error
	)
	if configPath == "" {
		log.Info("No config file given, using defaults")
		arbor, err = sdk.NewWithDefaults()
	} else {
		log.WithField("config", configPath).Info("Loading configuration")
		arbor, err = sdk.New(configPath)
	}
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize Arbor")
	}

	cfg := arbor.GetConfig()
	arbor.Logger().WithFields(logrus.Fields{
		"driver": cfg.Store.Driver,
		"db":     cfg.Store.DBPath,
	}).Info("Arbor initialized")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// I am here to serve.
	server := api.NewServer(arbor, &cfg.API)
	if err := server.Run(ctx, 30*time.Second); err != nil {
		arbor.Logger().WithError(err).Fatal("Server failed")
	}
}

// getConfigPath returns the configuration file path from the first argument
// or ARBOR_CONFIG
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return os.Getenv("ARBOR_CONFIG")
}
