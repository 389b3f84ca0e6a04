package rest

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error  string             `json:"error"`
	Fields []fieldErrorDetail `json:"fields,omitempty"`
}

type fieldErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500 without detail.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range verr.Errors {
			resp.Fields = append(resp.Fields, fieldErrorDetail{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "concurrent update, retry later")
	default:
		log.ErrorContext(r.Context(), "internal error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody reads a JSON body, rejecting unknown fields and trailing data.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if dec.More() {
		return domain.NewValidationError("body", "unexpected trailing data")
	}
	return nil
}

// queryLimit parses ?limit=. Absent means nil so the service default applies.
func queryLimit(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError("limit", "must be an integer")
	}
	return &n, nil
}

// queryField parses ?field=. The field name is normalised but not validated;
// the service rejects unknown names.
func queryField(r *http.Request) *domain.Field {
	raw := r.URL.Query().Get("field")
	if raw == "" {
		return nil
	}
	f, _ := domain.ParseField(raw)
	return &f
}

func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be a valid id")
	}
	return &id, nil
}
