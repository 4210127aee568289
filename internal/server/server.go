// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands over a config and a logger,
// and New assembles the chain
//
//	sqlite.DB → BookService / StudentService / BorrowService → handlers → routes
//
// Each layer only receives what it needs. Services get repository interfaces
// (not *sqlite.DB) and handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/library-records/internal/config"
	"github.com/sakif/library-records/internal/handler"
	"github.com/sakif/library-records/internal/middleware"
	sqliteRepo "github.com/sakif/library-records/internal/repository/sqlite"
	"github.com/sakif/library-records/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every route.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it is not confused with
// the modernc.org/sqlite driver.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                 → DB ping
// GET    /books                   → list books
// POST   /books                   → create book
// GET    /books/{id}              → get book
// PUT    /books/{id}              → partial update
// DELETE /books/{id}              → delete book and its history
// POST   /books/{id}/borrow       → lend to a student
// POST   /books/{id}/return       → close the active borrow
// GET    /books/{id}/borrows      → borrow history
// GET    /students                → list students
// POST   /students                → create student
// GET    /students/{id}           → get student
// PUT    /students/{id}           → partial update
// DELETE /students/{id}           → delete student
// GET    /students/{id}/borrows   → student's borrow history
//
// MIDDLEWARE ORDER MATTERS:
// 1. RealIP: client IP from proxy headers
// 2. RequestID: id + request-scoped logger in the context
// 3. Logger: one line per request, tagged with the request id
// 4. Recoverer: panics become 500 and still get logged by (3)
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestID(s.logger))
	s.router.Use(middleware.Logger())
	s.router.Use(chimiddleware.Recoverer)

	// s.db implements all three repository interfaces.
	bookService := service.NewBookService(s.db, s.logger)
	studentService := service.NewStudentService(s.db, s.logger)
	borrowService := service.NewBorrowService(s.db, s.db, s.db, s.logger)

	bookHandler := handler.NewBookHandler(bookService)
	studentHandler := handler.NewStudentHandler(studentService)
	borrowHandler := handler.NewBorrowHandler(borrowService)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/books", func(r chi.Router) {
		r.Get("/", bookHandler.HandleList)
		r.Post("/", bookHandler.HandleCreate)
		r.Get("/{id}", bookHandler.HandleGet)
		r.Put("/{id}", bookHandler.HandleUpdate)
		r.Delete("/{id}", bookHandler.HandleDelete)
		r.Post("/{id}/borrow", borrowHandler.HandleBorrow)
		r.Post("/{id}/return", borrowHandler.HandleReturn)
		r.Get("/{id}/borrows", borrowHandler.HandleBookHistory)
	})

	s.router.Route("/students", func(r chi.Router) {
		r.Get("/", studentHandler.HandleList)
		r.Post("/", studentHandler.HandleCreate)
		r.Get("/{id}", studentHandler.HandleGet)
		r.Put("/{id}", studentHandler.HandleUpdate)
		r.Delete("/{id}", studentHandler.HandleDelete)
		r.Get("/{id}/borrows", borrowHandler.HandleStudentHistory)
	})
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to ShutdownTimeout for in-flight requests
//  3. close the database (flushes WAL, releases the file lock)
//
// main.go passes a context cancelled on SIGINT/SIGTERM.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(s.config.Port)),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// gctx is cancelled by a failed ListenAndServe too.
		<-gctx.Done()
		s.logger.Info("shutting down", slog.Duration("timeout", s.config.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
