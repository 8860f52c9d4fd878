// Package devserver is an in-memory stand-in for the Banas backend. It
// serves the same endpoints, tokens and error bodies, so the client can be
// run and tested without the hosted API.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banas-client/internal/auth"
	"banas-client/internal/config"
	"banas-client/internal/health"
	"banas-client/internal/logging"
	"banas-client/internal/metrics"
	"banas-client/internal/middleware"
	"banas-client/pkg/utils"
)

// APIPrefix is where the endpoints are mounted. Point the client's base URL
// at http://host:port/api.
const APIPrefix = "/api"

type Server struct {
	Backend *Backend
	cfg     *config.Config
	handler http.Handler
	log     *logrus.Entry
}

// New builds the router around backend. A nil backend gets a seeded one.
func New(cfg *config.Config, backend *Backend, log *logrus.Entry) (*Server, error) {
	log = logging.Or(log, "devserver")
	if backend == nil {
		backend = NewBackend()
		if err := backend.Seed(); err != nil {
			return nil, fmt.Errorf("seed backend: %w", err)
		}
	}

	s := &Server{Backend: backend, cfg: cfg, log: log}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	jwtManager := auth.NewJWTManager(s.cfg)
	h := NewHandler(s.Backend, jwtManager, s.log)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	checker := health.NewHealthChecker(time.Second)
	checker.Register("backend", func(context.Context) error {
		if len(s.Backend.Routes()) == 0 {
			return errors.New("no routes loaded")
		}
		return nil
	})

	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(s.log))
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.MetricsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		st := checker.Check(r.Context())
		code := http.StatusOK
		if st.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		utils.JSON(w, code, st)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix(APIPrefix).Subrouter()

	// Public
	api.HandleFunc("/login/", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", h.Refresh).Methods(http.MethodPost)

	// Everything else needs an access token
	p := api.NewRoute().Subrouter()
	p.Use(authMiddleware.Authenticate)

	p.HandleFunc("/dashboard/", h.Dashboard).Methods(http.MethodGet)
	p.HandleFunc("/route/", h.ListRoutes).Methods(http.MethodGet)

	p.HandleFunc("/customer/", h.ListCustomers).Methods(http.MethodGet)
	p.HandleFunc("/customer/", h.CreateCustomer).Methods(http.MethodPost)
	p.HandleFunc("/customer/route/{id}/", h.ListCustomersByRoute).Methods(http.MethodGet)
	p.HandleFunc("/customer/detail/{id}/", h.CustomerDetail).Methods(http.MethodGet)
	p.HandleFunc("/customer/account/{id}/", h.AccountDue).Methods(http.MethodGet)
	p.HandleFunc("/customer/{id}/", h.UpdateCustomer).Methods(http.MethodPut)

	p.HandleFunc("/dailyentry/", h.VerifiedEntries).Methods(http.MethodGet)
	p.HandleFunc("/dailyentry/", h.CreateEntry).Methods(http.MethodPost)
	p.HandleFunc("/dailyentry/list/pending/dailyentry/", h.PendingEntries).Methods(http.MethodGet)
	p.HandleFunc("/dailyentry/verify/dailyentry/", h.VerifyEntries).Methods(http.MethodPost)
	p.HandleFunc("/dailyentry/today/missing/", h.MissingEntries).Methods(http.MethodGet)
	p.HandleFunc("/dailyentry/bulk/import/", h.BulkImport).Methods(http.MethodPost)

	p.HandleFunc("/bill/bills/", h.ListBills).Methods(http.MethodGet)
	p.HandleFunc("/bill/{id}/", h.BillDetail).Methods(http.MethodGet)

	p.HandleFunc("/payment/", h.ListPayments).Methods(http.MethodGet)
	p.HandleFunc("/payment/", h.CreatePayment).Methods(http.MethodPost)
	p.HandleFunc("/payment/due/", h.DueList).Methods(http.MethodGet)
	p.HandleFunc("/payment/due/route/{id}/", h.DueListByRoute).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.Error(w, http.StatusNotFound, "Not found.")
	})

	return middleware.NewCORS(s.cfg)(r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("dev server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("dev server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
