package main

import (
	"Go_Vault/config"
	"Go_Vault/internal/repo"
	"Go_Vault/internal/service"
	"Go_Vault/internal/storage"
	"Go_Vault/router"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.AppConfig.SweepEnabled {
		hour, minute, err := config.ParseClock(config.AppConfig.SweepAt)
		if err != nil {
			log.Fatalf("invalid SWEEP_AT: %v", err)
		}
		retention := time.Duration(config.AppConfig.TrashRetentionDays) * 24 * time.Hour
		sweeper := service.NewRetentionSweeper(retention, hour, minute, config.AppConfig.SweepLockTTL)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:    config.AppConfig.HTTPAddr,
		Handler: router.InitRouter(),
	}
	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
