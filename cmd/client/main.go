package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/agroprofile/internal/client/api"
	"github.com/iudanet/agroprofile/internal/client/cli"
	"github.com/iudanet/agroprofile/internal/client/config"
	"github.com/iudanet/agroprofile/internal/client/iocli"
	"github.com/iudanet/agroprofile/internal/client/profile"
	"github.com/iudanet/agroprofile/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	// Глобальные флаги, значения по умолчанию из окружения
	showVersion := flag.Bool("version", false, "Show version information")
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env AGRO_SERVER_URL)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to local database (env AGRO_CLIENT_DB)")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout (env AGRO_CLIENT_TIMEOUT)")
	flag.BoolVar(&cfg.OfflineLogin, "offline-login", cfg.OfflineLogin, "Allow login from local data when the server is unreachable (testing only). "+
		"Works only for a profile registered offline on this device: online logins keep no local password hash")
	verbose := flag.Bool("verbose", false, "Print debug logs to stderr")
	flag.Parse()

	if *showVersion {
		printVersion()
		return 0
	}

	console := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.New(console, nil, nil).PrintUsage()
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open local database: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	apiClient := api.NewClient(cfg.ServerURL, api.WithTimeout(cfg.Timeout))
	svc := profile.NewService(apiClient, store, logger, profile.Options{AllowCachedLogin: cfg.OfflineLogin})
	app := cli.New(console, svc, apiClient)

	if err := app.Run(ctx, args[0], args[1:]); err != nil {
		logger.Debug("command failed", slog.String("command", args[0]), slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		if errors.Is(err, cli.ErrUnknownCommand) {
			app.PrintUsage()
		}
		return 1
	}

	return 0
}

func printVersion() {
	fmt.Printf("AgroProfile Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
