// Package api serves the order service over JSON/HTTP and streams order
// status changes over websockets.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"food-delivery/metrics"
	"food-delivery/services"
)

type Options struct {
	AdminPassword string
	RateLimitRPS  float64
	RateBurst     int
	// Health, when set, is checked by /healthz (e.g. a database ping).
	Health func(ctx context.Context) error
}

type Server struct {
	svc           *services.Service
	auth          *services.Authenticator
	hub           *Hub
	log           logrus.FieldLogger
	adminPassword string
	limiter       *RateLimiter
	health        func(ctx context.Context) error
}

func NewServer(svc *services.Service, auth *services.Authenticator, hub *Hub, log logrus.FieldLogger, opts Options) *Server {
	s := &Server{
		svc:           svc,
		auth:          auth,
		hub:           hub,
		log:           log.WithField("component", "api"),
		adminPassword: opts.AdminPassword,
		health:        opts.Health,
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimitRPS)
		}
		s.limiter = NewRateLimiter(opts.RateLimitRPS, burst)
	}
	return s
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverPanics, metrics.InstrumentHandler, s.logRequests)
	if s.limiter != nil {
		r.Use(s.limiter.Handler)
	}
	r.Use(s.authenticate)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/orders/{id}", s.protect(s.handleWatchOrder)).Methods(http.MethodGet)

	v := r.PathPrefix("/api").Subrouter()
	v.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	v.HandleFunc("/clients", s.handleRegisterClient).Methods(http.MethodPost)
	v.HandleFunc("/clients/{id}", s.protect(s.handleGetClient)).Methods(http.MethodGet)
	v.HandleFunc("/clients/{id}/status", s.protect(s.handleSetClientStatus, services.RoleAdmin)).Methods(http.MethodPatch)

	v.HandleFunc("/couriers", s.protect(s.handleRegisterCourier, services.RoleAdmin)).Methods(http.MethodPost)
	v.HandleFunc("/couriers", s.protect(s.handleListCouriers, services.RoleAdmin)).Methods(http.MethodGet)
	v.HandleFunc("/couriers/{id}", s.protect(s.handleGetCourier)).Methods(http.MethodGet)
	v.HandleFunc("/couriers/{id}/status", s.protect(s.handleSetCourierStatus, services.RoleAdmin, services.RoleCourier)).Methods(http.MethodPatch)
	v.HandleFunc("/couriers/{id}/orders", s.protect(s.handleCourierOrders, services.RoleAdmin, services.RoleCourier)).Methods(http.MethodGet)

	v.HandleFunc("/restaurants", s.protect(s.handleRegisterRestaurant, services.RoleAdmin)).Methods(http.MethodPost)
	v.HandleFunc("/restaurants", s.handleListRestaurants).Methods(http.MethodGet)
	v.HandleFunc("/restaurants/{id}", s.handleGetRestaurant).Methods(http.MethodGet)
	v.HandleFunc("/restaurants/{id}/combos", s.protect(s.handlePutCombo, services.RoleAdmin, services.RoleRestaurant)).Methods(http.MethodPut)
	v.HandleFunc("/restaurants/{id}/combos/{number:[0-9]+}", s.protect(s.handleRemoveCombo, services.RoleAdmin, services.RoleRestaurant)).Methods(http.MethodDelete)

	v.HandleFunc("/orders", s.protect(s.handleCreateOrder, services.RoleAdmin, services.RoleClient)).Methods(http.MethodPost)
	v.HandleFunc("/orders", s.protect(s.handleListOrders)).Methods(http.MethodGet)
	v.HandleFunc("/orders/{id}", s.protect(s.handleGetOrder)).Methods(http.MethodGet)
	v.HandleFunc("/orders/{id}/status", s.protect(s.handleUpdateOrderStatus)).Methods(http.MethodPatch)
	v.HandleFunc("/orders/{id}/feedback", s.protect(s.handleFeedback, services.RoleClient)).Methods(http.MethodPost)

	v.HandleFunc("/reports/revenue", s.protect(s.handleRevenueReport, services.RoleAdmin)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no such endpoint", Code: "not_found"})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.WithError(err).Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
