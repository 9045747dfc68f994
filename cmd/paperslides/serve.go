package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/unalkalkan/PaperSlides/internal/api"
	"github.com/unalkalkan/PaperSlides/internal/health"
	"github.com/unalkalkan/PaperSlides/internal/parser"
)

const shutdownTimeout = 30 * time.Second

func serveAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	addr := fmt.Sprintf("%s:%d", env.cfg.Server.Host, env.cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      newMux(env),
		ReadTimeout:  time.Duration(env.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(env.cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.WithField("addr", addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-c.Context.Done():
	}

	env.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	env.logger.Info("Server stopped")
	return nil
}

func newMux(env *environment) *http.ServeMux {
	mux := http.NewServeMux()

	healthHandler := health.NewHandler(Version, env.logger)
	healthHandler.Register("storage", health.StorageCheck(env.storage))
	healthHandler.Register("analyzer", health.AnalyzerCheck(env.registry.List, env.offline))
	healthHandler.Mount(mux)

	mux.HandleFunc("/api/v1/info", api.InfoHandler(api.InfoResponse{
		Version:        Version,
		StorageAdapter: env.cfg.Storage.Adapter,
		Analyzer:       env.pipeline.Analyzer().Name(),
		Analyzers:      env.registry.List(),
		FigureMatching: env.cfg.Pipeline.FigureMatching,
	}))
	mux.HandleFunc("/api/v1/providers", api.ProvidersHandler(env.registry))

	decks := api.NewDeckHandler(env.pipeline, parser.NewFactory(env.logger), env.pipeline.Runs(), env.cfg.Server.MaxUploadSize, env.logger)
	decks.Register(mux)

	return mux
}
