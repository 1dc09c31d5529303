package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"nfpharmacy/internal/auth"
	"nfpharmacy/internal/utils"

	"github.com/sirupsen/logrus"
)

type contextKey string

const contextKeyRequest contextKey = "request"

// requestInfo is shared by the middleware chain of a single request so the
// access log can report who made it.
type requestInfo struct {
	id     string
	userID string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(contextKeyRequest).(*requestInfo)
	return info
}

// requestLogger returns a log entry tagged with the request id and, on
// admin routes, the authenticated user.
func (s *Service) requestLogger(r *http.Request) *logrus.Entry {
	entry := logrus.NewEntry(s.logger)

	info := requestInfoFrom(r.Context())
	if info == nil {
		return entry
	}

	entry = entry.WithField("request_id", info.id)
	if info.userID != "" {
		entry = entry.WithField("user_id", info.userID)
	}
	return entry
}

const (
	cookieAccessToken = "nfp_access_token"
	headerRequestID   = "X-Request-ID"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		info := &requestInfo{id: r.Header.Get(headerRequestID)}
		if info.id == "" {
			info.id = utils.RequestID()
		}
		rw.Header().Set(headerRequestID, info.id)
		r = r.WithContext(context.WithValue(r.Context(), contextKeyRequest, info))

		next.ServeHTTP(rw, r)

		s.requestLogger(r).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// RequireAuth admits requests carrying a valid Cognito access token, either in
// the encrypted session cookie or as a bearer token.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := s.accessToken(r)
		if err != nil {
			s.requestLogger(r).WithError(err).Debug("no usable access token on request")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		claims, err := s.auth.Verify(r.Context(), accessToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				s.requestLogger(r).WithError(err).Warn("rejected access token")
			} else {
				s.requestLogger(r).WithError(err).Error("failed to verify access token")
			}
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		if info := requestInfoFrom(r.Context()); info != nil {
			info.userID = claims.Subject
		}
		s.requestLogger(r).WithField("email", claims.Email).Debug("authenticated user")

		next.ServeHTTP(w, r)
	})
}

func (s *Service) accessToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", errors.New("malformed authorization header")
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(cookieAccessToken)
	if err != nil {
		return "", err
	}

	var accessToken string
	if err := s.cookie.Decode(cookieAccessToken, cookie.Value, &accessToken); err != nil {
		return "", err
	}

	return accessToken, nil
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}
