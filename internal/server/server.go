package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/plugfox/helpdesk-server/api"
	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	"github.com/plugfox/helpdesk-server/internal/config"
	"github.com/plugfox/helpdesk-server/internal/log"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/support"
)

// Dependencies of the HTTP API. Captcha is nil when registration is guarded
// by reCAPTCHA, Prometheus is optional.
type Dependencies struct {
	Service    *support.Service
	Tokens     *auth.Provider
	Captcha    *captcha.Local
	Health     func(ctx context.Context) error
	Prometheus *metrics.Prometheus
	Logger     *slog.Logger
}

type Server struct {
	router *chi.Mux
	server *http.Server
}

func New(config *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	h := &handlers{
		svc:     deps.Service,
		captcha: deps.Captcha,
		logger:  logger,
		now:     time.Now,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.NewLogAdapter(logger), NoColor: true}))
	router.Use(middlewareErrorRecoverer(logger))
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:       config.API.AllowedOrigins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		MaxAge:               86400,
	}))
	router.Use(middlewarePreflight)
	if deps.Prometheus != nil {
		router.Use(deps.Prometheus.InstrumentHandler)
	}
	router.Use(middleware.Heartbeat("/ping"))
	if config.API.Timeout > 0 {
		router.Use(middleware.Timeout(config.API.Timeout))
	}

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		api.NewResponse().SetError("Not found").NotFound(w)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		api.NewResponse().SetError("Method not allowed").MethodNotAllowed(w)
	})

	router.Get("/health", healthRoute(deps.Health))
	if deps.Prometheus != nil {
		router.Handle("/metrics", deps.Prometheus.Handler())
	}

	limiter := newRateLimiter(config.API.RateLimit, config.API.RateBurst)

	// API group
	router.Group(func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(middlewareAuthentication(deps.Tokens))
		r.Use(limiter.Handler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.Post("/register", h.register)
			r.Get("/me", h.me)
		})

		if deps.Captcha != nil {
			r.Route("/captcha", func(r chi.Router) {
				r.Get("/", h.issueCaptcha)
				r.Post("/verify", h.verifyCaptcha)
				r.Get("/{token}/image", h.captchaImage)
			})
		}

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.listTickets)
			r.Post("/", h.createTicket)
			r.Put("/", h.updateTicket)
			r.Post("/{ticketID}/rating", h.rateTicket)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.listMessages)
			r.Post("/", h.sendMessage)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.listReports)
			r.Post("/", h.reportMessage)
		})

		r.Get("/stats", h.stats)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.API.Host, config.API.Port),
		Handler:      router,
		WriteTimeout: config.API.WriteTimeout,
		ReadTimeout:  config.API.ReadTimeout,
		IdleTimeout:  config.API.IdleTimeout,
		ErrorLog:     log.NewLogAdapter(logger),
	}

	return &Server{
		router: router,
		server: server,
	}
}

// Handler returns the root handler, used by tests.
func (srv *Server) Handler() http.Handler {
	return srv.router
}

// ListenAndServe starts the server and listens for incoming requests.
func (srv *Server) ListenAndServe() error {
	return srv.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.server.Shutdown(ctx)
}

// Close closes the server immediately.
func (srv *Server) Close() error {
	return srv.server.Close()
}
