package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"abstat/internal/config"
	"abstat/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Close()

	uiApp, err := c.UIApp()
	if err != nil {
		c.Logger.Fatal("failed to create UI app", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Logger.Info("starting UI", zap.String("url", "http://localhost:"+cfg.UI.Port))
	if err := uiApp.Run(ctx, ":"+cfg.UI.Port); err != nil {
		c.Logger.Fatal("UI server failed", zap.Error(err))
	}
}
