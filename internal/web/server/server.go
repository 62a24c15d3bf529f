package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/config"
	"github.com/foxzi/statboard/internal/ipfilter"
	"github.com/foxzi/statboard/internal/metrics"
	"github.com/foxzi/statboard/internal/stats"
	"github.com/foxzi/statboard/internal/tls"
	"github.com/foxzi/statboard/internal/web/handlers"
	"github.com/foxzi/statboard/internal/web/middleware"
	"github.com/foxzi/statboard/internal/web/sessions"
	"github.com/foxzi/statboard/internal/web/static"
	"github.com/foxzi/statboard/internal/web/views"
)

type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *sessions.Registry
	handlers *handlers.Handlers
	metrics  *metrics.Metrics
	http     *http.Server
	acme     *tls.ACMEManager
}

// New wires the dashboard. Every browser that signs in gets its own session
// with a gateway built by newGateway. m may be nil when metrics are disabled.
func New(cfg *config.Config, newGateway sessions.Factory, campaigns *stats.CampaignData, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	viewEngine, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize views: %w", err)
	}

	formatter, err := stats.NewFormatter(cfg.Display.Locale, cfg.Display.CurrencySymbol, cfg.Display.TruncateAt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize formatter: %w", err)
	}

	tlsConfig, acme, err := tls.ServerConfig(cfg.Server.TLS)
	if err != nil {
		return nil, err
	}

	reg := sessions.NewRegistry(newGateway, cfg.Server.SessionTTL, cfg.HasTLS(), logger)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		sessions: reg,
		handlers: handlers.New(reg, campaigns, formatter, viewEngine, logger),
		metrics:  m,
		acme:     acme,
	}

	s.http = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      s.Handler(),
		TLSConfig:    tlsConfig,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// Handler returns the routed dashboard
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	h := s.handlers

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(metrics.HTTPMiddleware)
	r.Use(ipfilter.New("dashboard", s.cfg.Server.AllowedIPs, s.logger).Middleware)

	r.Handle("/static/*", http.StripPrefix("/static/", static.Handler()))
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		scrape := ipfilter.New("metrics", s.cfg.Metrics.AllowedIPs, s.logger)
		r.Handle(s.cfg.Metrics.Path, scrape.Middleware(s.metrics.Handler()))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(s.sessions.CSRF)

		r.Get("/health", h.Health)

		// Public
		r.Get("/", h.SignInPage)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.SignIn)
			r.Get("/signup", h.SignUpPage)
			r.Post("/signup", h.SignUp)
			r.Get("/forgot-password", h.ForgotPasswordPage)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/signout", h.SignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(access.Default.Middleware(sessions.Source, access.RequireUser, s.logger))
			r.Get("/dashboard", h.Dashboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(access.Default.Middleware(sessions.Source, access.RequireAdmin, s.logger))
			r.Get("/users", h.Users)
			r.Post("/users/{id}/approve", h.ApproveUser)
			r.Post("/users/{id}/reject", h.RejectUser)
		})
	})

	return r
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go s.sessions.Run(ctx)

	var challenge *http.Server
	if s.acme != nil {
		if certs := s.acme.CachedCertificates(ctx); len(certs) < len(s.acme.Domains()) {
			s.logger.Info("ACME certificates will be requested on first connection", "domains", s.acme.Domains())
		}
		challenge = &http.Server{
			Addr:              ":80",
			Handler:           s.acme.HTTPHandler(nil),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			s.logger.Info("starting ACME challenge server", "addr", challenge.Addr)
			if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("ACME challenge server: %w", err)
			}
		}()
	}

	go func() {
		s.logger.Info("starting dashboard server", "addr", s.cfg.Server.ListenAddr, "tls", s.http.TLSConfig != nil)
		var err error
		if s.http.TLSConfig != nil {
			err = s.http.ListenAndServeTLS("", "")
		} else {
			err = s.http.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.shutdown(challenge)
		return err
	case <-ctx.Done():
		s.shutdown(challenge)
		return nil
	}
}

func (s *Server) shutdown(challenge *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
	}
	if challenge != nil {
		if err := challenge.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("ACME challenge server shutdown error", "error", err)
		}
	}
}
