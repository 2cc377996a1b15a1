package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/redactqc/redactqc/internal/redactqcerr"
)

// envelope is the success-response JSON shape (spec.md §6 entity
// responses), generalized from the teacher's envelope{Success, Data, Error}.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// errorBody is the error-response JSON shape spec.md §6 requires:
// {error: code, message}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

// respondErr maps a redactqcerr.Error (or a plain error, treated as
// internal) to the {error, message} HTTP response spec.md §6 defines:
// 400 invalid-path/bad-filter, 404 not-found, 409 busy/conflict, 500 internal.
func respondErr(w http.ResponseWriter, err error) {
	var rqErr *redactqcerr.Error
	if !errors.As(err, &rqErr) {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: string(redactqcerr.CodeInternalError), Message: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch rqErr.Code {
	case redactqcerr.CodeInvalidPath:
		status = http.StatusBadRequest
	case redactqcerr.CodeNotFound:
		status = http.StatusNotFound
	case redactqcerr.CodeBusy:
		status = http.StatusConflict
	case redactqcerr.CodeExtractFail, redactqcerr.CodeInternalError, redactqcerr.CodeCancelled, redactqcerr.CodeReportFail:
		status = http.StatusInternalServerError
	}

	respondJSON(w, status, errorBody{Error: string(rqErr.Code), Message: rqErr.Message})
}

func badRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: string(redactqcerr.CodeInvalidPath), Message: message})
}
