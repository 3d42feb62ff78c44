package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("response is not an error envelope: %v", err)
	}
	return env.Error
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "not found",
			err:        apperrors.NewNotFound("table type", "invoice", "delivery", "alarm"),
			wantStatus: http.StatusNotFound,
			wantDetail: `table type "invoice" not found, existing options: delivery, alarm`,
		},
		{
			name:       "missing localization",
			err:        &apperrors.NotLocalizedError{Subject: "status", Language: "en"},
			wantStatus: http.StatusNotFound,
			wantDetail: "language en for status not found",
		},
		{
			name:       "validation",
			err:        apperrors.NewValidation("severity_level", "must be numeric"),
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "severity_level: must be numeric",
		},
		{
			name:       "wrapped sentinel still maps",
			err:        fmt.Errorf("resolve schema: %w", apperrors.NewNotFound("language", "fr")),
			wantStatus: http.StatusNotFound,
			wantDetail: `resolve schema: language "fr" not found`,
		},
		{
			name:       "provisioning failure keeps its detail",
			err:        &apperrors.ProvisioningError{Step: "migrate", Tenant: "werk_1", Err: errors.New("dirty version")},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "provisioning tenant werk_1 failed at migrate: dirty version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err, zap.NewNop())

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeErrorBody(t, w)
			if body.StatusCode != tt.wantStatus {
				t.Errorf("body status_code = %d, want %d", body.StatusCode, tt.wantStatus)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
			if body.StatusDescription != http.StatusText(tt.wantStatus) {
				t.Errorf("status_description = %q, want %q", body.StatusDescription, http.StatusText(tt.wantStatus))
			}
		})
	}
}

func TestWriteErrorDoesNotLeakInternals(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pgx: connection refused host=10.0.0.5"), zap.NewNop())

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeErrorBody(t, w); body.Detail != "internal server error" {
		t.Errorf("detail = %q, internals must not reach the client", body.Detail)
	}
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, `from: "06.01.2025" is not a date (expected 2006-01-02)`, zap.NewNop())

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeErrorBody(t, w); body.StatusCode != http.StatusBadRequest {
		t.Errorf("body status_code = %d, want 400", body.StatusCode)
	}
}

func TestWriteCollectionShape(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCollection(w, &services.Collection{
		Language:    "de",
		Tenant:      "testwerk",
		TotalRecord: 0,
		Pages:       0,
		Items:       nil,
	}, zap.NewNop())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var env struct {
		Data              CollectionData `json:"data"`
		StatusCode        int            `json:"status_code"`
		Detail            string         `json:"detail"`
		StatusDescription string         `json:"status_description"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	if env.StatusCode != 200 || env.Detail != "OK" || env.StatusDescription != "OK" {
		t.Errorf("envelope = %+v, want status_code 200 / detail OK", env)
	}
	if env.Data.Type != "collection" {
		t.Errorf("data.type = %q, want collection", env.Data.Type)
	}
	// An empty page must serialize as [], not null.
	if env.Data.Items == nil {
		t.Error("data.items decoded to nil, want empty array")
	}
}
