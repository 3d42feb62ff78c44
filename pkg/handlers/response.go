package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// Envelope is the success wrapper every data endpoint returns.
type Envelope struct {
	Data              any    `json:"data"`
	StatusCode        int    `json:"status_code"`
	Detail            string `json:"detail"`
	StatusDescription string `json:"status_description"`
}

// CollectionData is the data payload of a collection query response.
type CollectionData struct {
	Language    string           `json:"language"`
	Tenant      string           `json:"tenant"`
	Type        string           `json:"type"`
	TotalRecord int              `json:"total_record"`
	Pages       int              `json:"pages"`
	Items       []map[string]any `json:"items"`
}

type errorBody struct {
	StatusCode        int    `json:"status_code"`
	StatusDescription string `json:"status_description"`
	Detail            string `json:"detail"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteData wraps data in the success envelope and writes it.
func WriteData(w http.ResponseWriter, statusCode int, data any, logger *zap.Logger) {
	env := Envelope{
		Data:              data,
		StatusCode:        statusCode,
		Detail:            "OK",
		StatusDescription: http.StatusText(statusCode),
	}
	if err := WriteJSON(w, statusCode, env); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// WriteCollection writes one query result page in the collection envelope.
func WriteCollection(w http.ResponseWriter, col *services.Collection, logger *zap.Logger) {
	items := col.Items
	if items == nil {
		items = []map[string]any{}
	}
	WriteData(w, http.StatusOK, CollectionData{
		Language:    col.Language,
		Tenant:      col.Tenant,
		Type:        "collection",
		TotalRecord: col.TotalRecord,
		Pages:       col.Pages,
		Items:       items,
	}, logger)
}

// WriteError maps a service error to the error envelope. NotFound and
// NotLocalized become 404, filter validation 422, provisioning and anything
// unclassified 500. Unexpected errors are logged with their cause but leave
// only a generic detail in the response.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	detail := "internal server error"

	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNotLocalized):
		status = http.StatusNotFound
		detail = err.Error()
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusUnprocessableEntity
		detail = err.Error()
	case errors.Is(err, apperrors.ErrProvisioning):
		detail = err.Error()
	default:
		logger.Error("Unexpected error", zap.Error(err))
	}

	writeErrorEnvelope(w, status, detail, logger)
}

// BadRequest writes a 400 for malformed request input (bad dates, bad JSON,
// non-numeric pagination) before any service is involved.
func BadRequest(w http.ResponseWriter, detail string, logger *zap.Logger) {
	writeErrorEnvelope(w, http.StatusBadRequest, detail, logger)
}

func writeErrorEnvelope(w http.ResponseWriter, status int, detail string, logger *zap.Logger) {
	env := errorEnvelope{Error: errorBody{
		StatusCode:        status,
		StatusDescription: http.StatusText(status),
		Detail:            detail,
	}}
	if err := WriteJSON(w, status, env); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
