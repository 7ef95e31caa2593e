package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadradar/leadradar-cli/internal/model"
	"github.com/leadradar/leadradar-cli/internal/pipeline"
	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lead hunt HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := newCacheStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "init cache store")
		}
		defer store.Close()

		p := newPipeline(cfg, store)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(p),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return eris.Wrap(err, "shutdown http server")
			}
			zap.L().Info("http server stopped")
			return nil
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "http server")
			}
			return nil
		}
	},
}

type huntRequest struct {
	Category string `json:"category"`
	Location string `json:"location"`
	// Enrich defaults to true when the field is omitted.
	Enrich *bool `json:"enrich"`
}

type huntResponse struct {
	Found int          `json:"found"`
	Leads []model.Lead `json:"leads"`
	Error string       `json:"error,omitempty"`
}

func newRouter(p *pipeline.Pipeline) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/categories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"categories": overpass.Categories()})
	})

	r.Post("/hunt", func(w http.ResponseWriter, req *http.Request) {
		var body huntRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, huntResponse{Leads: []model.Lead{}, Error: "invalid request body"})
			return
		}
		if body.Category == "" || body.Location == "" {
			writeJSON(w, http.StatusBadRequest, huntResponse{Leads: []model.Lead{}, Error: "category and location are required"})
			return
		}

		enrich := true
		if body.Enrich != nil {
			enrich = *body.Enrich
		}

		leads, err := p.Run(req.Context(), pipeline.Request{
			Category: body.Category,
			Location: body.Location,
			Enrich:   enrich,
		})
		if err != nil {
			// Upstream outages degrade to an empty result so clients can retry.
			zap.L().Warn("hunt failed", zap.String("category", body.Category), zap.String("location", body.Location), zap.Error(err))
			writeJSON(w, http.StatusOK, huntResponse{Found: 0, Leads: []model.Lead{}, Error: eris.Cause(err).Error()})
			return
		}

		writeJSON(w, http.StatusOK, huntResponse{Found: len(leads), Leads: leads})
	})

	return r
}

// requestID tags every request with an id for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		zap.L().Debug("request", zap.String("id", id), zap.String("method", req.Method), zap.String("path", req.URL.Path))
		next.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
