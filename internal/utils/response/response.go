// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Browser and tag-reader clients read a single "message" field to show
// the user, so every error envelope carries one.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases:
//
//	{ "status": "error", "message": "field name is required" }
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Status values. "failure" marks a request that was understood but could
// not be honoured, e.g. a scan of an unknown tag.
const (
	StatusOK      = "success"
	StatusError   = "error"
	StatusFailure = "failure"
)

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() must be set before WriteHeader(); once the status line is sent,
// headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Error builds an error envelope carrying msg.
func Error(msg string) Response {
	return Response{Status: StatusError, Message: msg}
}

// Failure builds a failure envelope carrying msg.
func Failure(msg string) Response {
	return Response{Status: StatusFailure, Message: msg}
}

// GeneralError wraps any Go error into the standard envelope.
func GeneralError(err error) Response {
	return Error(err.Error())
}

// ValidationError converts validator field errors into one sentence per
// field joined with ", ".
//
//	{ "status": "error", "message": "field name is required, field regNumber is required" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Error(strings.Join(errMessages, ", "))
}
