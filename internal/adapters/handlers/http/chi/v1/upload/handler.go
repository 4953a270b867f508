package upload

import (
	"log/slog"
	"net/http"
	"strconv"
	"upload-coordinator/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Limits bounds request bodies: JSON payloads and raw part bytes
type Limits struct {
	MaxJSONBody int64
	MaxPartBody int64
}

// HandlerV1 is the handler for v1 upload routes
type HandlerV1 struct {
	uploadService port.UploadService
	limits        Limits
	logger        *slog.Logger
}

// NewUploadHandlerV1 creates HandlerV1
func NewUploadHandlerV1(service port.UploadService, limits Limits, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService: service,
		limits:        limits,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		if h.limits.MaxJSONBody > 0 {
			r.Use(middleware.RequestSize(h.limits.MaxJSONBody))
		}
		r.Post("/", h.CreateUploadV1)
		r.Get("/{uploadID}", h.GetUploadV1)
		r.Delete("/{uploadID}", h.DeleteUploadV1)
		r.Post("/{uploadID}/presign", h.PresignPartsV1)
		r.Post("/{uploadID}/parts/{index}/presign", h.PresignPartV1)
		r.Post("/{uploadID}/commit", h.CommitUploadV1)
		r.Post("/{uploadID}/abort", h.AbortUploadV1)
	})

	router.Group(func(r chi.Router) {
		if h.limits.MaxPartBody > 0 {
			r.Use(middleware.RequestSize(h.limits.MaxPartBody))
		}
		r.Put("/{uploadID}/parts/{index}", h.UploadPartV1)
	})

	return router
}

func uploadIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "uploadID")
	if raw == "" {
		http.Error(w, "Upload ID is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid upload ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "part index must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (h *HandlerV1) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
