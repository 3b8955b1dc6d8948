package api

import (
	"net/http"
	"time"

	"github.com/samhotchkiss/trackshare/internal/metrics"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

func handleHealth(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{
		"name":    "TrackShare",
		"tagline": "Share what you're listening to",
		"health":  "/health",
	})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, metrics.SnapshotNow())
}
