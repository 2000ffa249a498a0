package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nutritrack/nutritrack-go/internal/service"
	"github.com/rs/zerolog/hlog"
)

const maxBodyBytes = 1 << 20 // 1MB

var (
	errBodyTooLarge   = errors.New("request body too large")
	errInvalidRequest = errors.New("invalid request body")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(kind, msg string) map[string]string {
	return map[string]string{"error": kind, "message": msg}
}

// decodeJSON reads a size-capped JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		// encoding/json has no typed error for unknown fields; match its message.
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return &service.ValidationError{Field: field, Rule: "unknown"}
		default:
			return errInvalidRequest
		}
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidRequest
	}

	return nil
}

// writeError maps service errors to status codes. Anything unrecognized is
// logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *service.ValidationError
		exists *service.ProfileExistsError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse("ValidationError", verr.Error()))
	case errors.Is(err, errInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse("ValidationError", err.Error()))
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("PayloadTooLarge", err.Error()))
	case errors.Is(err, service.ErrDuplicateUser):
		writeJSON(w, http.StatusBadRequest, errorResponse("DuplicateUser", err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse("InvalidCredentials", err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse("Unauthorized", err.Error()))
	case errors.As(err, &exists):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "ProfileAlreadyExists",
			"message": exists.Error(),
			"profile": exists.Profile,
		})
	case errors.Is(err, service.ErrProfileExists):
		writeJSON(w, http.StatusBadRequest, errorResponse("ProfileAlreadyExists", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("NotFound", err.Error()))
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse("InternalError", "internal server error"))
	}
}
