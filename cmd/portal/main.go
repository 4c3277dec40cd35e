// Package main inicia o servidor HTTP do portal do aluno.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eduvale/polo-portal/internal/config"
	"github.com/eduvale/polo-portal/internal/handler"
	"github.com/eduvale/polo-portal/internal/lms"
	"github.com/eduvale/polo-portal/internal/middleware"
	"github.com/eduvale/polo-portal/internal/repository"
	"github.com/eduvale/polo-portal/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	lmsClient := lms.NewClient(cfg.LMSAddressTemplate)

	svc := service.NewService(repo, lmsClient, logger)
	defer svc.Close()

	session := middleware.NewSessionMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, session, cfg.AdminToken)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Varredura periódica de boletos vencidos
	g.Go(func() error {
		svc.StartOverdueSweep(ctx, time.Hour)
		return nil
	})

	// Servidor HTTP
	g.Go(func() error {
		sugar.Infow("starting portal server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Encerramento gracioso quando o contexto é cancelado
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
