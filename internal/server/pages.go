package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"nfpharmacy/internal/ocr"
	"nfpharmacy/internal/statements"
	"nfpharmacy/pkg/types"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// writeError maps service errors onto the JSON error shape and status codes
// the back office and verification page expect.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ocrErr    *ocr.Error
		verifyErr *statements.VerifyError
	)

	switch {
	case errors.Is(err, statements.ErrNoFile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, statements.ErrNoStatementIDs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &ocrErr):
		s.requestLogger(r).WithError(err).WithField("path", r.URL.Path).Warn("ocr service call failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: ocrErr.Tag, Status: ocrErr.Status, Body: ocrErr.Body})
	case errors.As(err, &verifyErr):
		status := http.StatusBadRequest
		if errors.Is(err, statements.ErrTooManyAttempts) {
			status = http.StatusTooManyRequests
		}
		writeJSON(w, status, errorResponse{Error: verifyErr.Message, Code: verifyErr.Code})
	case errors.Is(err, types.ErrStatementNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Statement not found"})
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to write
	default:
		s.requestLogger(r).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.requestLogger(r).WithError(err).Error("health check failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
