package main

import (
	"Go_Vault/config"
	"Go_Vault/internal/repo"
	"Go_Vault/internal/service"
	"Go_Vault/internal/storage"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Runs one retention sweep and exits; suitable for cron.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retention := time.Duration(config.AppConfig.TrashRetentionDays) * 24 * time.Hour
	sweeper := service.NewRetentionSweeper(retention, 0, 0, config.AppConfig.SweepLockTTL)
	result, err := sweeper.RunOnce(ctx)
	if err != nil {
		log.Fatalf("retention sweep failed: %v", err)
	}
	if result.Skipped {
		log.Println("retention sweep skipped: another run is in progress")
		return
	}
	log.Printf("retention sweep done: %d purged, %d failed, %d tokens in %s",
		result.FilesPurged, result.FilesFailed, result.TokensPurged, result.Duration)
}
