package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"abstat/internal/config"
	"abstat/internal/container"
)

// main serves the JSON API and the form app side by side
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Close()

	uiApp, err := c.UIApp()
	if err != nil {
		c.Logger.Fatal("failed to create UI app", zap.Error(err))
	}
	server := c.APIServer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("starting API server", zap.String("port", appConfig.Server.Port))
		return server.Run(gctx, ":"+appConfig.Server.Port)
	})
	g.Go(func() error {
		c.Logger.Info("starting UI", zap.String("port", appConfig.UI.Port))
		return uiApp.Run(gctx, ":"+appConfig.UI.Port)
	})

	if err := g.Wait(); err != nil {
		c.Logger.Fatal("server stopped", zap.Error(err))
	}
	c.Logger.Info("shutdown complete")
}
