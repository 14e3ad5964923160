package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/meonghae/profile-service/server/auth"
	"github.com/meonghae/profile-service/server/schedule"
	"github.com/rs/cors"
)

const (
	// DefaultBasePath is the path prefix of every route.
	DefaultBasePath = "/profile-service"

	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"

	mimeTypeJSON     = "application/json; charset=utf-8"
	mimeTypeCalendar = "text/calendar; charset=utf-8"
)

// Config holds the collaborators of a Server.
type Config struct {
	Service       *schedule.Service
	Authenticator auth.Authenticator
	Tokens        *auth.TokenProvider
	Resolver      auth.OwnerResolver
	BasePath      string
	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server serves the profile service HTTP API
type Server struct {
	service *schedule.Service
	authn   auth.Authenticator
	tokens  *auth.TokenProvider
	logger  *slog.Logger
	handler http.Handler
}

// New creates a new Server
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	if cfg.Authenticator == nil || cfg.Tokens == nil || cfg.Resolver == nil {
		return nil, fmt.Errorf("authenticator, token provider and resolver are required")
	}
	if cfg.BasePath == "" {
		cfg.BasePath = DefaultBasePath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		service: cfg.Service,
		authn:   cfg.Authenticator,
		tokens:  cfg.Tokens,
		logger:  cfg.Logger,
	}

	router := mux.NewRouter()
	router.Use(s.requestID, s.accessLog)

	base := router.PathPrefix(cfg.BasePath).Subrouter()
	base.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	base.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	api := base.NewRoute().Subrouter()
	api.Use(auth.Middleware(cfg.Resolver))

	api.HandleFunc("/pets", s.handleCreatePet).Methods(http.MethodPost)
	api.HandleFunc("/pets/{id:[0-9]+}", s.handleGetPet).Methods(http.MethodGet)

	api.HandleFunc("/schedules", s.handleCreateSchedule).Methods(http.MethodPost)
	api.HandleFunc("/schedules", s.handleDeleteOwnerSchedules).Methods(http.MethodDelete)
	api.HandleFunc("/schedules/preview", s.handlePreview).Methods(http.MethodGet)
	api.HandleFunc("/schedules/day", s.handleDayView).Methods(http.MethodGet)
	api.HandleFunc("/schedules/month", s.handleMonthGrouping).Methods(http.MethodGet)
	api.HandleFunc("/schedules/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/schedules/export.ics", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id:[0-9]+}", s.handleGetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/schedules/{id:[0-9]+}", s.handleUpdateSchedule).Methods(http.MethodPut)
	api.HandleFunc("/schedules/{id:[0-9]+}", s.handleDeleteSchedule).Methods(http.MethodDelete)

	s.handler = router
	if len(cfg.AllowedOrigins) > 0 {
		s.handler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"Authorization", headerRequestID},
		}).Handler(router)
	}
	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
