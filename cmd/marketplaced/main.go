package main

import (
	"context"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config"
	"github.com/ZilDuck/zilliqa-marketplace/internal/config/di"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	config.Init()

	container, err := di.NewContainer(config.Get())
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer func() {
		if err := container.Delete(); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to close container")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.GetDaemon().Execute(ctx); err != nil {
		zap.L().With(zap.Error(err)).Error("Marketplace stopped")
	}
}
