package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"loot-tracker/internal/backup"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/domain"
	"loot-tracker/internal/service"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

var errUnknownKind = errors.New("unknown run kind")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are sent, an encode error has nowhere to go
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, catalog.ErrUnknownEntry),
		errors.Is(err, backup.ErrSnapshotNotFound),
		errors.Is(err, errUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, backup.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed request body: %v", service.ErrValidation, err)
	}
	return nil
}

func runKind(r *http.Request) (domain.RunKind, error) {
	kind, ok := domain.ParseRunKind(r.PathValue("kind"))
	if !ok {
		return "", fmt.Errorf("%w: %q", errUnknownKind, r.PathValue("kind"))
	}
	return kind, nil
}
