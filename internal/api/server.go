package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/entities", handler.GetEntities)
	mux.HandleFunc("GET /api/v1/assets", handler.GetAssets)
	mux.HandleFunc("GET /api/v1/networth", handler.GetNetWorth)
	mux.HandleFunc("GET /api/v1/status", handler.GetStatus)

	refreshHandler := http.HandlerFunc(handler.TriggerRefresh)
	settingsHandler := http.HandlerFunc(handler.UpdateSettings)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/refresh", requireAuth(adminAPIKey, refreshHandler))
		mux.Handle("PUT /api/v1/settings", requireAuth(adminAPIKey, settingsHandler))
	} else {
		mux.Handle("POST /api/v1/refresh", refreshHandler)
		mux.Handle("PUT /api/v1/settings", settingsHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
