package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rickgao/price-relay/internal/hub"
	"github.com/rickgao/price-relay/internal/version"
	"github.com/rickgao/price-relay/internal/writer"
)

type hubStats interface {
	Stats() hub.Stats
}

type pinger interface {
	Ping(ctx context.Context) error
}

type writerStats interface {
	Stats() writer.WriterMetrics
}

// newHealthHandler serves /health and /debug/peers. db and ws may be nil
// when the database sink is disabled.
func newHealthHandler(srv hubStats, db pinger, ws writerStats) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]any),
		}

		stats := srv.Stats()
		health.Components["hub"] = map[string]any{
			"peers":      stats.Peers,
			"registered": stats.Registered,
		}

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["timescaledb"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["timescaledb"] = "connected"
			}
		}

		if ws != nil {
			m := ws.Stats()
			health.Components["price_writer"] = map[string]int64{
				"received": m.Received,
				"dropped":  m.Dropped,
				"inserts":  m.Inserts,
				"errors":   m.Errors,
			}
			if m.Errors > 0 {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/peers", func(w http.ResponseWriter, r *http.Request) {
		stats := srv.Stats()

		type peer struct {
			Conn  string `json:"conn"`
			Token string `json:"token,omitempty"`
		}
		peers := make([]peer, 0, len(stats.Connected))
		for _, id := range stats.Connected {
			peers = append(peers, peer{Conn: string(id), Token: stats.Tokens[id]})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"connected":  stats.Peers,
			"registered": stats.Registered,
			"peers":      peers,
		})
	})

	return mux
}
