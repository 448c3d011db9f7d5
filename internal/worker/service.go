// Package worker provides the HTTP service exposing the usageref stores.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/usageref/internal/config"
	"github.com/thebtf/usageref/internal/db"
	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
	"github.com/thebtf/usageref/internal/maintenance"
)

// Service configuration constants
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// MaxRequestBodySize caps JSON request bodies.
	MaxRequestBodySize = 1 << 20
)

// Service is the HTTP front of the stores.
type Service struct {
	version string
	config  *config.Config

	// Database
	store    *dbgorm.Store
	members  db.MemberStore
	teams    db.TeamStore
	products db.ProductStore
	orders   db.OrderStore
	queries  db.QueryStore

	maintenance *maintenance.Service

	// HTTP server
	router    *chi.Mux
	server    *http.Server
	startTime time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the stores of an open Store into a router.
func NewService(version string, cfg *config.Config, store *dbgorm.Store) *Service {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		version:   version,
		config:    cfg,
		store:     store,
		members:   dbgorm.NewMemberStore(store),
		teams:     dbgorm.NewTeamStore(store),
		products:  dbgorm.NewProductStore(store),
		orders:    dbgorm.NewOrderStore(store),
		queries:   dbgorm.NewQueryStore(store),
		router:    chi.NewRouter(),
		startTime: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	svc.maintenance = maintenance.NewService(store, cfg, log.Logger)

	svc.setupMiddleware()
	svc.setupRoutes()

	return svc
}

// Handler returns the root HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware.
func (s *Service) setupMiddleware() {
	s.router.Use(RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(DefaultHTTPTimeout))
	s.router.Use(middleware.RealIP)
	s.router.Use(SecurityHeaders)
	s.router.Use(MaxBodySize(MaxRequestBodySize))
}

// setupRoutes configures HTTP routes.
func (s *Service) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(RequireJSONContentType)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", s.handleCreateTeam)
			r.Get("/", s.handleListTeams)
			r.Get("/{id}", s.handleGetTeam)
			r.Post("/{id}/members", s.handleAddTeamMember)
		})

		r.Route("/members", func(r chi.Router) {
			r.Post("/", s.handleCreateMember)
			r.Get("/", s.handleListMembers)
			r.Get("/search", s.handleSearchMembers)
			r.Get("/{id}", s.handleGetMember)
			r.Put("/{id}/team", s.handleJoinTeam)
			r.Patch("/{id}", s.handleMergeMember)
			r.Delete("/{id}", s.handleRemoveMember)
			r.Get("/{id}/orders", s.handleListMemberOrders)
		})

		r.Post("/products", s.handleCreateProduct)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Post("/orders", s.handleCreateOrder)
		r.Get("/orders/{id}", s.handleGetOrder)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/ages", s.handleAgeReport)
			r.Get("/teams", s.handleTeamReport)
			r.Get("/member-items", s.handleMemberItems)
			r.Get("/orders", s.handleOrderLines)
			r.Get("/summary", s.handleSummary)
		})

		r.Get("/maintenance", s.handleMaintenanceStats)
		r.Post("/maintenance/run", s.handleMaintenanceRun)
	})
}

// Start starts the HTTP server in the background.
func (s *Service) Start() error {
	port := s.config.WorkerPort
	if port <= 0 {
		port = config.DefaultWorkerPort
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.maintenance.Start(s.ctx)
	}()

	log.Info().
		Int("port", port).
		Int("pid", os.Getpid()).
		Str("dialect", s.store.Dialect()).
		Msg("Worker HTTP server started")

	return nil
}

// Shutdown stops the HTTP server and maintenance, then closes the database.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	s.maintenance.Stop()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("Database close error")
	}

	log.Info().Dur("uptime", time.Since(s.startTime)).Msg("Worker service shutdown complete")
	return nil
}
