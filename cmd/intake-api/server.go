// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// setupHTTPServer configures and starts the HTTP server.
func setupHTTPServer(cfg *config.Config, api *IntakeAPI, gracefulCloseWG *sync.WaitGroup) *http.Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID", "X-Team-ID"},
	}))

	r.Get("/livez", api.HandleLivez)
	r.Get("/readyz", api.HandleReadyz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions/{sessionUID}", func(r chi.Router) {
			r.Get("/", api.HandleGetSession)
			r.Post("/chunks/{partIndex}", api.HandleUploadChunk)
			r.Post("/finalize", api.HandleFinalizeSession)
		})

		r.Route("/pending-changes/{changeUID}", func(r chi.Router) {
			r.Get("/", api.HandleGetPendingChange)
			r.Post("/review", api.HandleReviewPendingChange)
			r.Post("/auto-apply", api.HandleAutoApplyPendingChange)
		})

		r.Route("/diarization", func(r chi.Router) {
			r.Get("/health", api.HandleDiarizationHealth)
			r.Get("/stats", api.HandleDiarizationStats)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/cleanup-temp", api.HandleCleanupTemp)
			r.Post("/purge-old", api.HandlePurgeOld)
		})
	})

	var addr string
	if cfg.Bind == "*" {
		addr = ":" + cfg.Port
	} else {
		addr = cfg.Bind + ":" + cfg.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + cfg.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
