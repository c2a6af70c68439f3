package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/catalog"
	"github.com/lehigh-university-libraries/marcrank/internal/handlers"
	"github.com/lehigh-university-libraries/marcrank/internal/rankcmd"
)

func newServeCmd() *cobra.Command {
	var port string
	var configPath string
	var catalogURL string
	var catalogRate float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP server ranking record pairs",
		Long: `Starts an HTTP server that ranks record pairs with one configuration.

POST /api/rank accepts {"record1": {...}, "record2": {...}} or, with
--catalog-url, {"record1_id": "...", "record2_id": "..."} and returns the
preferred record with the full comparison. Prometheus metrics are served
on /metrics.`,
		Example: `  # Start server on default port 8888
  marcrank serve --config configs/default.yaml

  # Resolve record IDs against a VuFind catalog
  marcrank serve --config configs/default.yaml --catalog-url https://catalog.example.edu --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ranker, _, err := rankcmd.LoadRanker(configPath)
			if err != nil {
				return err
			}

			var catalogClient *catalog.Client
			if catalogURL != "" {
				catalogClient = catalog.NewClient(catalogURL, catalog.WithRateLimit(catalogRate, 1))
			}
			registry := prometheus.NewRegistry()
			metrics := handlers.NewMetrics()
			if err := metrics.Register(registry); err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}
			handler := handlers.New(ranker, catalogClient, metrics)

			mux := handler.Routes()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Ranking server available", "addr", addr, "url", "http://localhost"+addr, "features", ranker.Len())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to ranking configuration; defaults to $"+rankcmd.ConfigEnv)
	cmd.Flags().StringVar(&catalogURL, "catalog-url", "", "VuFind base URL used to resolve record IDs")
	cmd.Flags().Float64Var(&catalogRate, "catalog-rate", 0, "Maximum catalog requests per second (0 for unlimited)")

	return cmd
}
