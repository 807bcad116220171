package server

import (
	"net/http"

	"github.com/jrsteele09/go-hr-session/authmodel"
)

const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	prefix := s.config.GetAPIPrefix()

	s.RegisterRouteFunc(http.MethodGet, RouteHealth, s.HealthHandler())
	if s.gatherer != nil {
		s.RegisterRouteHandler(http.MethodGet, RouteMetrics, metricsHandler(s.gatherer))
	}

	// Public auth routes
	s.RegisterRouteFunc(http.MethodPost, prefix+authmodel.RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc(http.MethodPost, prefix+authmodel.RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc(http.MethodPost, prefix+authmodel.RouteResendVerification, ChainMiddleware(s.ResendVerificationHandler(), s.APIMiddleware()...))

	// Bearer protected routes
	s.RegisterRouteFunc(http.MethodGet, prefix+authmodel.RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc(http.MethodPost, prefix+authmodel.RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for everything under the prefix
	s.router.PathPrefix(prefix).Methods(http.MethodOptions).HandlerFunc(ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {}, s.CorsMiddleware))

	s.router.NotFoundHandler = ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	}, s.LoggingMiddleware)
	s.router.MethodNotAllowedHandler = ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}, s.LoggingMiddleware)
}
