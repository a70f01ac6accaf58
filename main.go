package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imagelib/config"
	"imagelib/models"
	"imagelib/routes"
	"imagelib/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Upload{})

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		utils.Sugar.Fatalf("failed to create upload directory %s: %v", cfg.UploadDir, err)
	}

	r := routes.SetupRouter(db)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		utils.Sugar.Infof("listening on :%s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Sugar.Fatalf("server stopped with error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	utils.Sugar.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Sugar.Errorf("shutdown error: %v", err)
	}
	_ = utils.Logger.Sync()
}
