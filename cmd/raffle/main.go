package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raffle-ledger/internal/api"
	"raffle-ledger/internal/config"
	"raffle-ledger/internal/ledger"
	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/oracle"
	"raffle-ledger/internal/processor"
	"raffle-ledger/internal/raffle"
	"raffle-ledger/internal/storage"
	"raffle-ledger/internal/tracker"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "raffle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Initialize(logger.Configuration{
		LogFile:   cfg.LogFile,
		ErrorFile: cfg.ErrorLogFile,
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	store, err := storage.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	l := ledger.New(store, ledger.SystemClock{}, cfg.Ledger())
	if err := l.RegisterProgram(ctx, cfg.ProgramID, cfg.UpgradeAuthority); err != nil {
		return err
	}

	oracleKey, err := oracle.Load(cfg.OracleMnemonic, cfg.OracleSeed)
	if err != nil {
		return err
	}

	p := processor.New(l, raffle.NewProgram(cfg.Raffle(oracleKey.Identity())))

	trackerInstance := tracker.NewTracker(ctx, p, oracleKey, cfg.OraclePollInterval)
	if err := trackerInstance.VerifyOracleIdentity(); err != nil {
		return err
	}

	server := api.NewServer(p, cfg.ListenAddr)

	// Channel for fatal errors
	errCh := make(chan error, 1)

	trackerDone := make(chan struct{})
	go func() {
		defer close(trackerDone)
		trackerInstance.Run()
	}()

	go func() {
		if err := server.Run(); err != nil {
			errCh <- err
		}
	}()

	logger.Info("raffle ledger started",
		zap.String("program", cfg.ProgramID.Hex()),
		zap.String("oracle", oracleKey.Identity().Hex()),
		zap.String("storage", cfg.DatabaseType),
	)

	// Wait for a fatal error or a shutdown signal
	select {
	case err = <-errCh:
		logger.Error("stopping due to error", zap.Error(err))
	case sig := <-waitForInterrupt():
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http server shutdown", zap.Error(shutdownErr))
	}
	<-trackerDone

	return err
}

func waitForInterrupt() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return sigCh
}
