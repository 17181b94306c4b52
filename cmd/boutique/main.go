package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmeshcher/boutique-system/internal/config"
	"github.com/mmeshcher/boutique-system/internal/handler"
	"github.com/mmeshcher/boutique-system/internal/middleware"
	"github.com/mmeshcher/boutique-system/internal/promo"
	"github.com/mmeshcher/boutique-system/internal/repository"
	"github.com/mmeshcher/boutique-system/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return err
	}
	defer repo.Close()

	var promoClient service.PromoClient
	if cfg.PromoSystemAddress != "" {
		promoClient = promo.NewClient(cfg.PromoSystemAddress)
	}

	svc := service.NewService(repo, promoClient, logger)
	auth := middleware.NewAuthMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, auth, logger)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: handler.NewRouter(h, logger),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.StartPromoUpdates(gCtx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("address", cfg.RunAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
