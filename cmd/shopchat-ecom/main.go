// Command shopchat-ecom runs the e-commerce mock API: catalog, cart and
// favorites over the uniform JSON envelope.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/shopchat/shopchat/config"
	"github.com/shopchat/shopchat/ecommerce"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("shopchat-ecom failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// The store API needs no model backend; tolerate a missing key.
		if !errors.Is(err, config.ErrMissingAPIKey) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = &config.Config{EcomPort: 3002}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logging.NewDefaultSlogLogger()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	server.NewEcomHandler(ecommerce.NewCartService(), ecommerce.NewFavoriteService()).Register(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server.shutdown", "error", err)
		}
	}()

	logger.Info("shopchat-ecom.start", "port", cfg.EcomPort)
	if err := e.Start(fmt.Sprintf(":%d", cfg.EcomPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
