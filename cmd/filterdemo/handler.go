package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/cors"

	f "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain"
	pg "github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/infrastructure"
	"github.com/krew-solutions/dynamic-filters-go/dynfilters/repository"
)

const (
	requestIDHeader = "X-Request-Id"
	defaultLimit    = 50
	maxLimit        = 500
)

type pageLister interface {
	List(ctx context.Context, request f.FilterRequest, opts ...repository.ListOption) (repository.Page, error)
}

type listResponse struct {
	Data  []map[string]any `json:"data"`
	Total int64            `json:"total"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func newRouter(users pageLister, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /users", &listHandler{lister: users, logger: logger})

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(mux)
}

type listHandler struct {
	lister pageLister
	logger *slog.Logger
}

func (h *listHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)
	logger := h.logger.With(slog.String("request_id", requestID))

	request, err := pg.RequestFromHTTP(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	limit := parseUint(r.URL.Query().Get("limit"), defaultLimit)
	if limit == 0 || limit > maxLimit {
		limit = maxLimit
	}
	offset := parseUint(r.URL.Query().Get("offset"), 0)

	page, err := h.lister.List(r.Context(), request, repository.Limit(limit), repository.Offset(offset))
	var filterErr *repository.FilterError
	if errors.As(err, &filterErr) {
		logger.InfoContext(r.Context(), "rejected filters", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: requestID})
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "listing failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "listing failed", RequestID: requestID})
		return
	}
	logger.InfoContext(r.Context(), "listed",
		slog.String("path", r.URL.Path),
		slog.Int("rows", len(page.Rows)),
		slog.Int64("total", page.Total),
	)
	writeJSON(w, http.StatusOK, listResponse{Data: page.Rows, Total: page.Total})
}

func parseUint(raw string, fallback uint64) uint64 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
