package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"allowsync/internal/allowlist"
	"allowsync/internal/api"
	"allowsync/internal/config"
	"allowsync/internal/daemon"
	"allowsync/internal/hook"
	"allowsync/internal/logger"
	"allowsync/internal/meta"
	"allowsync/internal/version"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log = log.Named("allowsync")

	// The allow file directory must be writable before entering the loop
	if err := allowlist.CheckWritable(cfg.AllowFile); err != nil {
		log.Fatal("Startup check failed", zap.Error(err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components
	fetcher := meta.NewClient(&cfg.API, cfg.Token, log)
	writer := allowlist.NewAtomicWriter()
	runner := hook.NewShellRunner(cfg.Hook.Timeout, log)

	d, err := daemon.New(cfg, fetcher, writer, runner, log)
	if err != nil {
		log.Fatal("Failed to initialize daemon", zap.Error(err))
	}

	// Start status API if enabled
	var statusAPI *api.Server
	if cfg.Status.Enabled {
		statusAPI = api.NewServer(cfg, d, log)
		statusAPI.Start()
	}

	// Run the update loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx)
	}()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Received signal", zap.String("signal", sig.String()))

	// Graceful shutdown: let the in-flight cycle finish, then stop
	log.Info("Starting graceful shutdown")
	cancel()
	<-done

	if statusAPI != nil {
		if err := statusAPI.Stop(); err != nil {
			log.Error("Failed to stop status API", zap.Error(err))
		}
	}

	log.Info("Shutdown complete")
}
