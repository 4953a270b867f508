package chi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
)

// NewRouter builds the API handler.
// Body size limits are set per route by the upload handler since part bodies are far larger than JSON payloads.
func NewRouter(logger *slog.Logger, uploadHandler *upload.HandlerV1, env string, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// X-Request-ID is reused when the caller sends one
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	if !strings.EqualFold(env, "prod") {
		r.Use(devCORS())
	}

	r.Get("/health", health(logger))
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/uploads", uploadHandler.Routes())
	})

	return r
}

// devCORS lets a local front-end call the API, ETag is exposed for resumable clients
func devCORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}); err != nil {
			logger.Error("error encoding health response", "error", err)
		}
	}
}
