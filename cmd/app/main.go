package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Timmy93/MyJDProxy/internal/config"
	"github.com/Timmy93/MyJDProxy/internal/handlers"
	"github.com/Timmy93/MyJDProxy/internal/jd"
	"github.com/Timmy93/MyJDProxy/internal/myjd"
	"github.com/Timmy93/MyJDProxy/internal/storage"
	"github.com/Timmy93/MyJDProxy/internal/worker"
)

var (
	configPath string
	port       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "myjdproxy",
		Short: "HTTP proxy for a MyJDownloader device",
		Long: `MyJDProxy exposes a small JSON API over a MyJDownloader account:
submit download packages, query their status and control the device's
download controller. Session expiry is handled transparently.`,
		Run: runServer,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.toml", "Path to the TOML configuration file")
	rootCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides the configured port)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	logger := initLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	db, err := storage.NewDatabase(cfg.Poller.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	repo := storage.NewRepository(db)

	session := jd.NewRemoteSession(myjd.NewClient(), myjd.Credentials{
		Username: cfg.MyJD.Username,
		Password: cfg.MyJD.Password,
		AppKey:   cfg.MyJD.AppKey,
		DeviceID: cfg.MyJD.DeviceID,
	})
	client := jd.New(session, jd.Config{
		DeviceID:          cfg.MyJD.DeviceID,
		BasePath:          cfg.Downloads.BasePath,
		AllowedCategories: cfg.Downloads.AllowedCategories,
		Logger:            logger.With().Str("component", "jd").Logger(),
	})

	// Connect eagerly so the first API call is fast, but don't fail the
	// process: every operation reconnects lazily on demand.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := client.Connect(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not connect to MyJDownloader on startup, will retry on first request")
	}
	cancel()

	manager := worker.NewManager(client,
		time.Duration(cfg.Poller.IntervalSeconds)*time.Second,
		logger.With().Str("component", "poller").Logger())
	manager.Start()
	defer manager.Stop()

	server := handlers.NewServer(cfg, client, repo, manager,
		logger.With().Str("component", "http").Logger())

	logger.Info().Int("port", cfg.Server.Port).Msg("starting MyJDProxy server")
	if err := server.Run(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "myjdproxy").Logger()
}
