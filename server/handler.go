package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/meonghae/profile-service/server/auth"
	"github.com/meonghae/profile-service/server/schedule"
)

type requestIDKey struct{}

// requestIDFromContext returns the id assigned by the requestID middleware.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID tags every request with an id, reusing the caller's if present.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("handled request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// owner returns the email of the authenticated caller.
func owner(r *http.Request) string {
	if p := auth.GetPrincipalFromContext(r.Context()); p != nil {
		return p.Email
	}
	return ""
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, schedule.ErrInvalidRequest
	}
	return id, nil
}

func (s *Server) parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.Join(schedule.ErrInvalidRequest, errors.New("date is required"))
	}
	d, err := time.ParseInLocation(dateLayout, value, s.service.Location())
	if err != nil {
		return time.Time{}, errors.Join(schedule.ErrInvalidRequest, err)
	}
	return d, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(schedule.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "INTERNAL_ERROR", Message: http.StatusText(status)})
	}
	w.Header().Set(headerContentType, mimeTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}

// writeError maps err onto a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case schedule.IsValidationError(err):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, schedule.ErrScheduleNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND_SCHEDULE"
	case errors.Is(err, schedule.ErrPetNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND_PET"
	case auth.IsType(err, auth.ErrInvalidCredentials), auth.IsType(err, auth.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		msg = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	principal, err := s.authn.Authenticate(r.Context(), auth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, expires, err := s.tokens.CreateAccessToken(principal.Email, principal.Roles)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Authorization", "bearer "+token)
	s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, ExpiresAt: expires})
}
