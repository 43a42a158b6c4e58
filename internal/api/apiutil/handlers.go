// internal/api/apiutil/handlers.go
package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
)

// maxBodyBytes bounds JSON request bodies; stat exports posted as rows can
// be large.
const maxBodyBytes = 8 << 20

// storageRetrySeconds is the Retry-After hint sent when the profile store
// is unavailable.
const storageRetrySeconds = "5"

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// BadRequest wraps err as a 400 with its message.
func BadRequest(err error) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
}

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError maps err to a status and writes a JSON error body. Unexpected
// errors are logged and reported without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var handlerErr HandlerError
	var fieldErr FieldError
	status := http.StatusInternalServerError
	body := errorResponse{Error: "Internal Server Error"}

	switch {
	case errors.As(err, &handlerErr):
		status = handlerErr.Status
		body.Error = handlerErr.Message
		if errors.As(handlerErr.Err, &fieldErr) {
			body.Fields = []FieldError{fieldErr}
		}
	case errors.As(err, &fieldErr):
		status = http.StatusBadRequest
		body.Error = "Invalid request"
		body.Fields = []FieldError{fieldErr}
	case errors.Is(err, authz.ErrUnauthenticated):
		status = http.StatusUnauthorized
		body.Error = "Unauthorized"
	case errors.Is(err, authz.ErrForbidden):
		status = http.StatusForbidden
		body.Error = "Forbidden"
	case errors.Is(err, profiles.ErrStorage):
		status = http.StatusServiceUnavailable
		body.Error = "Mapping storage unavailable, retry the request"
		w.Header().Set("Retry-After", storageRetrySeconds)
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, body); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
