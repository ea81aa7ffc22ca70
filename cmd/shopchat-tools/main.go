// Command shopchat-tools serves the store's cart and favorites tools over
// MCP stdio, proxying the e-commerce API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopchat/shopchat/config"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/mcpserver"
)

func main() {
	if err := run(); err != nil {
		slog.Error("shopchat-tools failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// Tools only need the store API URL; tolerate a missing model key.
		if !errors.Is(err, config.ErrMissingAPIKey) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = &config.Config{EcommerceAPIURL: mcpserver.DefaultAPIBaseURL}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// stdout carries the MCP protocol; logs go to stderr.
	logger := logging.NewJSONLogger(os.Stderr, slog.LevelInfo)

	srv, err := mcpserver.New(func(o *mcpserver.Options) {
		o.APIBaseURL = cfg.EcommerceAPIURL
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
