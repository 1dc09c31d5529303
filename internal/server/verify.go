package server

import (
	"errors"
	"net/http"
	"strings"

	"nfpharmacy/internal/statements"
	"nfpharmacy/pkg/types"
)

type VerifyPageData struct {
	Title string
	ID    string
	Error string
}

type verifyForm struct {
	ID  string `form:"id"`
	OTP string `form:"otp"`
}

func (s *Service) handleGetVerifyPage(w http.ResponseWriter, r *http.Request) {
	s.renderVerifyPage(w, http.StatusOK, VerifyPageData{
		Title: "View Your Statement",
		ID:    r.URL.Query().Get("id"),
	})
}

func (s *Service) handlePostVerifyPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)

	if err := r.ParseForm(); err != nil {
		s.renderVerifyPage(w, http.StatusBadRequest, VerifyPageData{Title: "View Your Statement", Error: statements.ErrMissingInputs.Message})
		return
	}

	var f verifyForm
	if err := decoder.Decode(&f, r.PostForm); err != nil {
		s.requestLogger(r).WithError(err).Warn("failed to decode verify form")
		s.renderVerifyPage(w, http.StatusBadRequest, VerifyPageData{Title: "View Your Statement", Error: statements.ErrMissingInputs.Message})
		return
	}

	// the form tolerates whitespace around the code, the JSON API does not
	url, err := s.statements.Verify(r.Context(), f.ID, strings.TrimSpace(f.OTP))
	if err != nil {
		data := VerifyPageData{Title: "View Your Statement", ID: f.ID}

		var verifyErr *statements.VerifyError
		switch {
		case errors.As(err, &verifyErr):
			data.Error = verifyErr.Message
			status := http.StatusBadRequest
			if errors.Is(err, statements.ErrTooManyAttempts) {
				status = http.StatusTooManyRequests
			}
			s.renderVerifyPage(w, status, data)
		case errors.Is(err, types.ErrStatementNotFound):
			data.Error = "Statement not found"
			s.renderVerifyPage(w, http.StatusNotFound, data)
		default:
			s.requestLogger(r).WithError(err).WithField("statement_id", f.ID).Error("failed to verify statement passcode")
			data.Error = "Something went wrong. Please try again."
			s.renderVerifyPage(w, http.StatusInternalServerError, data)
		}
		return
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (s *Service) renderVerifyPage(w http.ResponseWriter, status int, data VerifyPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := s.templates.ExecuteTemplate(w, "page.verify", data); err != nil {
		s.logger.WithError(err).Error("failed to render verify page")
	}
}
