package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"food-delivery/services"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func statusForCode(code string) int {
	switch code {
	case "not_found":
		return http.StatusNotFound
	case "invalid_input":
		return http.StatusBadRequest
	case "invalid_transition", "conflict":
		return http.StatusConflict
	case "no_courier_available":
		return http.StatusServiceUnavailable
	case "forbidden":
		return http.StatusForbidden
	case "unauthorized":
		return http.StatusUnauthorized
	case "throttled":
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeError maps service errors to HTTP statuses. Internal errors are
// logged and not echoed to the caller.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := services.ErrorCode(err)
	status := statusForCode(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty request body", services.ErrInvalidInput)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", services.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return nil
}
