package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/km-arc/simple-structure/app"
	framework "github.com/km-arc/simple-structure/framework/app"
	"github.com/km-arc/simple-structure/framework/config"
	"github.com/km-arc/simple-structure/framework/container"
	"github.com/km-arc/simple-structure/framework/providers"
	"github.com/km-arc/simple-structure/framework/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load() // loads .env automatically

	b := framework.New(cfg.App.BaseDir)
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{SetDefault: true},
		&providers.HTTPClientServiceProvider{},
	} {
		if err := b.Register(p); err != nil {
			fatal("register provider", err)
		}
	}
	if err := b.Boot(); err != nil {
		fatal("boot", err)
	}

	if err := app.Define(b,
		"Alice", "alice@example.com",
		"Bob", "bob@example.com",
	); err != nil {
		fatal("define routes", err)
	}

	srv := server.New(b, cfg.HTTP)
	srv.Static("/public", "./public")

	slog.InfoContext(ctx, "starting", slog.String("app", cfg.App.Name), slog.String("env", cfg.App.Env))
	if err := srv.Run(ctx, ":"+cfg.App.Port); err != nil {
		fatal("server", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
