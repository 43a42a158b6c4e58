package apiutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"kills"}`, false},
		{"unknown field", `{"name":"kills","extra":1}`, true},
		{"trailing data", `{"name":"kills"}{"name":"aces"}`, true},
		{"malformed", `{"name":`, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(test.body))
			var dst payload
			err := DecodeJSON(r, &dst)
			if (err != nil) != test.wantErr {
				t.Fatalf("DecodeJSON err = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantField  string
	}{
		{"handler error", HandlerError{Status: http.StatusNotFound, Message: "Profile not found"}, http.StatusNotFound, "Profile not found", ""},
		{"field error", FieldError{Field: "teamId", Reason: "is required"}, http.StatusBadRequest, "Invalid request", "teamId"},
		{"bad request wrapping field", BadRequest(FieldError{Field: "source", Reason: "is required"}), http.StatusBadRequest, "source is required", "source"},
		{"unauthenticated", fmt.Errorf("load: %w", authz.ErrUnauthenticated), http.StatusUnauthorized, "Unauthorized", ""},
		{"forbidden", authz.ErrForbidden, http.StatusForbidden, "Forbidden", ""},
		{"storage", fmt.Errorf("load profile: %w", profiles.ErrCorruptProfile), http.StatusServiceUnavailable, "Mapping storage unavailable, retry the request", ""},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, "Internal Server Error", ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), test.err)
			if rec.Code != test.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, test.wantStatus)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != test.wantError {
				t.Fatalf("error = %q, want %q", body.Error, test.wantError)
			}
			if retry := rec.Header().Get("Retry-After"); (test.wantStatus == http.StatusServiceUnavailable) != (retry != "") {
				t.Fatalf("Retry-After = %q for status %d", retry, rec.Code)
			}
			if test.wantField != "" && (len(body.Fields) != 1 || body.Fields[0].Field != test.wantField) {
				t.Fatalf("fields = %+v, want %s", body.Fields, test.wantField)
			}
		})
	}
}

func TestSourceField(t *testing.T) {
	if got, err := SourceField(" hudl ", "source"); err != nil || got != identity.SourceHudl {
		t.Fatalf("SourceField(hudl) = %q, %v", got, err)
	}
	var fieldErr FieldError
	if _, err := SourceField("maxpreps", "source"); !errors.As(err, &fieldErr) || fieldErr.Field != "source" {
		t.Fatalf("SourceField(maxpreps) err = %v", err)
	}
}
