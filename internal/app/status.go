package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vk/plugridgo/internal/ctxlog"
)

// statusHandler reports the state of the extension layer: catalogued points
// and the number of cached job runtimes.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	points := make([]string, 0)
	for _, p := range a.catalog.Points() {
		points = append(points, p.String())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"extension_points": points,
		"cached_runtimes":  a.cache.Len(),
	})
}

// startStatusServer runs the status HTTP server in the background and wires
// its shutdown into the process-exit hooks.
func (a *App) startStatusServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/status", a.statusHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.StatusPort),
		Handler: mux,
	}

	a.hooks.Register(func(ctx context.Context) error {
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down status server: %w", err)
		}
		return nil
	})

	go func() {
		logger.Info("Status server starting.", "address", fmt.Sprintf("http://localhost%s/status", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed.", "error", err)
		}
	}()
}
