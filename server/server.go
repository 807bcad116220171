package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-hr-session/internal/config"
	"github.com/jrsteele09/go-hr-session/internal/metrics"
	"github.com/jrsteele09/go-hr-session/token/jwt"
	"github.com/jrsteele09/go-hr-session/users"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const tokenIssuer = "hr-console-stub"

// Server is a local stand-in for the HR API auth endpoints.
type Server struct {
	env      string
	router   *mux.Router
	routes   []string
	config   config.Config
	users    users.UserRepo
	issuer   *jwt.Issuer
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records request counters in m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

func New(cfg config.Config, userRepo users.UserRepo, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if userRepo == nil {
		return nil, errors.New("[server.New] user repo is required")
	}

	issuer, err := jwt.NewIssuer(cfg.GetTokenSecret(), tokenIssuer, cfg.GetAccessTokenExpiry())
	if err != nil {
		return nil, errors.Wrap(err, "[server.New] failed to create token issuer")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		router: mux.NewRouter(),
		config: cfg,
		users:  userRepo,
		issuer: issuer,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, errors.Wrap(err, "[server.New] failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(method, path string, handler http.Handler) {
	s.routes = append(s.routes, method+" "+path)
	s.router.Handle(path, handler).Methods(method)
}

func (s *Server) RegisterRouteFunc(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteHandler(method, path, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered")
	}
}
