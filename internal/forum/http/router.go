package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/observability"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/httpx"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService         *service.AuthService
	SubscriptionService *service.SubscriptionService
	Metrics             *observability.Metrics
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTopics()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}
	authn := httpx.AuthnMiddleware(r.verifier)

	// Public
	r.Mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	r.Mux.HandleFunc("POST /api/auth/register", h.HandleRegister)

	// Bearer token required
	r.Mux.Handle("POST /api/auth/refresh", httpx.Chain(http.HandlerFunc(h.HandleRefresh), authn))
	r.Mux.Handle("GET /api/auth/me", httpx.Chain(http.HandlerFunc(h.HandleMe), authn))
	r.Mux.Handle("PUT /api/auth/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile), authn))
}

func (r *Router) registerTopics() {
	h := &TopicsHandler{SubscriptionService: r.SubscriptionService}
	authn := httpx.AuthnMiddleware(r.verifier)

	r.Mux.Handle("GET /api/topics", httpx.Chain(http.HandlerFunc(h.HandleList), authn))
	r.Mux.Handle("GET /api/topics/subscribed", httpx.Chain(http.HandlerFunc(h.HandleListSubscribed), authn))
	r.Mux.Handle("POST /api/topics/{id}/subscribe", httpx.Chain(http.HandlerFunc(h.HandleSubscribe), authn))
	r.Mux.Handle("DELETE /api/topics/{id}/unsubscribe", httpx.Chain(http.HandlerFunc(h.HandleUnsubscribe), authn))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
