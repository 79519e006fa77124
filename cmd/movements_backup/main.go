package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/2beens/babymoves/internal"
	"github.com/2beens/babymoves/internal/backup"
	"github.com/2beens/babymoves/internal/config"
	"github.com/2beens/babymoves/internal/logging"
	"github.com/2beens/babymoves/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// movements google drive backup cmd

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	driveCredentials := flag.String("gd-creds", "", "google drive service account credentials json (defaults to the store credentials)")
	logsPath := flag.String("logs-path", "", "backup logs file path (empty for stdout)")
	timeout := flag.Duration("timeout", 10*time.Minute, "max duration of the whole backup")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      *logsPath,
		LogToStdout:      true,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: "movements-backup",
	})
	defer func() {
		if err := logCloser.Close(); err != nil {
			fmt.Printf("close logger: %s\n", err)
		}
	}()

	log.Println("starting movements backup ...")

	credentialsFile := *driveCredentials
	if credentialsFile == "" {
		credentialsFile = cfg.GoogleCredentialsFile
	}
	if credentialsFile == "" {
		log.Fatalln("google drive credentials json not specified")
	}

	if err := run(cfg, credentialsFile, *timeout); err != nil {
		log.Fatalf("movements backup: %s", err)
	}
}

func run(cfg *config.Config, credentialsFile string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, dbPool, err := internal.NewMovementStore(ctx, cfg, false)
	if err != nil {
		return err
	}
	if dbPool != nil {
		defer dbPool.Close()
	}

	driveService, err := backup.NewDriveService(ctx, credentialsFile)
	if err != nil {
		return err
	}

	metricsManager := metrics.NewManager("backup", "movements", metrics.SetupPrometheus())
	backupService, err := backup.NewGoogleDriveBackupService(ctx, driveService, metricsManager)
	if err != nil {
		return fmt.Errorf("create google drive backup service: %w", err)
	}

	start := time.Now()
	created, err := backupService.DoBackup(ctx, store, start)
	if err != nil {
		return err
	}

	log.Printf("backup done in %s, %d files created in folder %s", time.Since(start), len(created), backupService.BackupsFolderId())
	return nil
}
