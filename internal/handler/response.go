package handler

// RESPONSE HELPERS:
// Every handler writes JSON through writeJSON and every failure through
// writeError, so all error bodies share one shape:
//
//	{"error": "Book not found"}

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/sakif/library-records/internal/apperror"
	"github.com/sakif/library-records/internal/middleware"
)

// json mirrors encoding/json behaviour (field tags, HTML escaping, map key
// ordering) on top of jsoniter's faster codec.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies; every payload here is a handful of fields.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error body returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
//	ErrValidation → 400
//	ErrConflict   → 400 (a broken business rule is a bad request here)
//	ErrNotFound   → 404
//	ErrInternal   → 500
//
// Anything that is not an *apperror.AppError is logged with the request id
// and answered with a generic 500; raw errors may carry SQL or file paths.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		writeJSON(w, status, ErrorResponse{Error: appErr.Message})
		return
	}

	middleware.LoggerFromContext(r.Context()).Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "An internal error occurred",
	})
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched so the service can report which fields are missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		middleware.LoggerFromContext(r.Context()).Debug("invalid JSON body",
			slog.String("error", err.Error()),
		)
		return apperror.ValidationFailed("", "Invalid JSON body")
	}
	return nil
}

// pathID parses the {id} URL parameter. Ids that are not positive integers
// can never match a row, so they are reported as a missing resource.
func pathID(r *http.Request, resource string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource)
	}
	return id, nil
}
