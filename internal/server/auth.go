package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"nfpharmacy/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid credentials"})
			return
		}
		s.requestLogger(r).WithError(err).Error("failed to log in admin user")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Login failed"})
		return
	}

	encryptedToken, err := s.cookie.Encode(cookieAccessToken, session.AccessToken)
	if err != nil {
		s.requestLogger(r).WithError(err).Error("failed to encrypt access token")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccessToken,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   session.ExpiresIn,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccessToken,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
