package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/farmdash/internal/adapters/http"
	"github.com/PabloGalante/farmdash/internal/app/advisor"
	"github.com/PabloGalante/farmdash/internal/app/conversation"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API server",
	Long: `Serves /api/chat (assistant backend), /api/weather (forecast proxy) and
the /sessions conversation relay.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}

	archive, closeArchive, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArchive(); err != nil {
			logger.Warn("failed to close archive", zap.Error(err))
		}
	}()

	// sessions negotiate their own locale; the gateway forwards the default
	convSvc := conversation.NewService(buildGateway(cfg, cfg.Locale), archive)
	advisorSvc := advisor.NewService(llmClient)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(convSvc, advisorSvc, buildWeather(cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("farmdash API listening",
			zap.String("addr", srv.Addr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("llm", cfg.LLM.Backend),
			zap.String("archive", cfg.Archive.Backend))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		convSvc.Shutdown()
		return err
	})

	return g.Wait()
}
