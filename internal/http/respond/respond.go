package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/apperr"
	"github.com/hongminglow/pw-ledger/internal/models"
)

const internalMessage = "Terjadi kesalahan pada server"

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Success    bool                `json:"success"`
	Status     int                 `json:"status"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Pagination *models.Pagination  `json:"pagination,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: status < http.StatusBadRequest, Status: status, Message: message, Data: data})
}

// Page writes a list response. Pagination is repeated at the envelope level.
func Page[T any](w http.ResponseWriter, message string, page models.Page[T]) {
	p := page.Pagination
	write(w, http.StatusOK, Envelope{Success: true, Status: http.StatusOK, Message: message, Data: page, Pagination: &p})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Status: status, Message: message})
}

// Err maps err onto the envelope. Unclassified errors are logged and hidden.
func Err(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindInternal {
		zap.L().Error("request failed", zap.Error(err))
		Error(w, http.StatusInternalServerError, internalMessage)
		return
	}
	status := appErr.Status()
	write(w, status, Envelope{Status: status, Message: appErr.Message, Errors: appErr.Fields})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("respond: encode payload failed", zap.Error(err))
	}
}
