// Package httpserver exposes the Recipen REST API over net/http and gorilla/mux.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/and161185/recipen/internal/metrics"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/service"
	"github.com/and161185/recipen/internal/token"
)

// Services bundles the application services the handlers call into.
type Services struct {
	Auth    service.AuthService
	Recipes service.RecipeService
	Blogs   service.BlogService
	Users   service.UserService
}

// Options tunes the transport. Zero values disable the optional parts.
type Options struct {
	Debug          bool     // adds "reason" to error bodies
	AllowedOrigins []string // CORS allow-list
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RatePerMinute  int // per client IP; 0 disables
	RateBurst      int
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer // served on /metrics when set
	// Ready backs /healthz; nil means always ready.
	Ready func(context.Context) error
}

// Server wires services into HTTP handlers.
type Server struct {
	svc    Services
	issuer *token.Issuer
	log    *zap.Logger
	opt    Options
}

// New constructs the HTTP server with injected services.
func New(svc Services, issuer *token.Issuer, log *zap.Logger, opt Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, issuer: issuer, log: log, opt: opt}
}

func (s *Server) guard(h http.HandlerFunc, roles ...string) http.Handler {
	return s.RequireRoles(roles...)(h)
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, Logging(s.log, s.opt.Metrics), Recover(s.log), SecureHeaders)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if s.opt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opt.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	if s.opt.RatePerMinute > 0 {
		api.Use(NewIPRateLimiter(s.opt.RatePerMinute, s.opt.RateBurst, s.opt.Metrics).Middleware)
	}
	api.Use(MaxBodySize(s.opt.MaxBodyBytes), Timeout(s.opt.RequestTimeout))

	// session routes never verify the bearer: a client refreshing or logging in
	// again still holds its expired access token
	session := api.PathPrefix("/auth").Subrouter()
	session.HandleFunc("/register", s.register).Methods(http.MethodPost)
	session.HandleFunc("/login", s.login).Methods(http.MethodPost)
	session.HandleFunc("/refresh", s.refresh).Methods(http.MethodGet)
	session.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	api = api.NewRoute().Subrouter()
	api.Use(s.Authenticate)

	// recipes
	api.HandleFunc("/recipes", s.listRecipes).Methods(http.MethodGet)
	api.Handle("/recipes", s.guard(s.createRecipe, authors...)).Methods(http.MethodPost)
	api.HandleFunc("/recipes/{id}", s.getRecipe).Methods(http.MethodGet)
	api.Handle("/recipes/{id}", s.guard(s.updateRecipe, anyUser...)).Methods(http.MethodPut)
	api.Handle("/recipes/{id}", s.guard(s.deleteRecipe, anyUser...)).Methods(http.MethodDelete)
	api.Handle("/recipes/{id}/rating", s.guard(s.rate(s.svc.Recipes), anyUser...)).Methods(http.MethodPut)
	api.Handle("/recipes/{id}/comments", s.guard(s.addComment(s.svc.Recipes), anyUser...)).Methods(http.MethodPost)
	api.Handle("/recipes/{id}/comments/{commentId}", s.guard(s.deleteComment(s.svc.Recipes), anyUser...)).Methods(http.MethodDelete)
	api.Handle("/recipes/{id}/favorite", s.guard(s.toggleFavorite, anyUser...)).Methods(http.MethodPut)

	// blogs
	api.HandleFunc("/blogs", s.listBlogs).Methods(http.MethodGet)
	api.Handle("/blogs", s.guard(s.createBlog, authors...)).Methods(http.MethodPost)
	api.HandleFunc("/blogs/{id}", s.getBlog).Methods(http.MethodGet)
	api.Handle("/blogs/{id}", s.guard(s.updateBlog, anyUser...)).Methods(http.MethodPut)
	api.Handle("/blogs/{id}", s.guard(s.deleteBlog, anyUser...)).Methods(http.MethodDelete)
	api.Handle("/blogs/{id}/rating", s.guard(s.rate(s.svc.Blogs), anyUser...)).Methods(http.MethodPut)
	api.Handle("/blogs/{id}/comments", s.guard(s.addComment(s.svc.Blogs), anyUser...)).Methods(http.MethodPost)
	api.Handle("/blogs/{id}/comments/{commentId}", s.guard(s.deleteComment(s.svc.Blogs), anyUser...)).Methods(http.MethodDelete)

	// users
	api.Handle("/users", s.guard(s.listUsers, model.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/users/me", s.guard(s.updateProfile, anyUser...)).Methods(http.MethodPut)
	api.Handle("/users/{id}/disable", s.guard(s.disableUser, model.RoleAdmin)).Methods(http.MethodPatch)
	api.Handle("/subscriptions", s.guard(s.subscribe, anyUser...)).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opt.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.opt.Ready != nil {
		if err := s.opt.Ready(r.Context()); err != nil {
			s.log.Warn("not ready", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
