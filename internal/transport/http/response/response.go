// Package response writes the JSON envelope shared by all HTTP endpoints.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/apperror"
	"github.com/corray333/backend-labs/shop/internal/service/models/pagination"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	unexpectedErrorMessage = "An unexpected error occurred"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

// NewPagination builds the pagination block.
func NewPagination(totalItems, page, pageSize int) *Pagination {
	return &Pagination{
		TotalItems:  totalItems,
		TotalPages:  pagination.Page{Page: page, Limit: pageSize}.TotalPages(totalItems),
		CurrentPage: page,
		PageSize:    pageSize,
	}
}

// Envelope is the body of every response.
type Envelope struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Success writes a success envelope with status 200.
func Success(w http.ResponseWriter, r *http.Request, message string, data any) {
	write(w, r, http.StatusOK, Envelope{Status: statusSuccess, Message: message, Data: data})
}

// Created writes a success envelope with status 201.
func Created(w http.ResponseWriter, r *http.Request, message string, data any) {
	write(w, r, http.StatusCreated, Envelope{Status: statusSuccess, Message: message, Data: data})
}

// Paginated writes a success envelope with a pagination block.
func Paginated(w http.ResponseWriter, r *http.Request, message string, data any, page *Pagination) {
	write(w, r, http.StatusOK, Envelope{
		Status:     statusSuccess,
		Message:    message,
		Data:       data,
		Pagination: page,
	})
}

// Failure writes an error envelope with an explicit status.
func Failure(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, Envelope{Status: statusError, Message: message})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error writes an error envelope with the status of err's kind.
// Unclassified errors get a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		slog.ErrorContext(r.Context(), "Unhandled error", "path", r.URL.Path, "error", err)
		write(w, r, http.StatusInternalServerError, Envelope{Status: statusError, Message: unexpectedErrorMessage})

		return
	}

	if appErr.Kind == apperror.KindInternal {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	write(w, r, StatusOf(appErr.Kind), Envelope{Status: statusError, Message: appErr.Message})
}

func write(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "Error sending response", "error", err)
	}
}
