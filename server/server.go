// Package server exposes the HTTP boundary: the webhook intake endpoint, the
// checkout order-intent API, and the admin surface over the in-process
// ledger.
package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
	"github.com/goliatone/go-payment-ingest/ingest"
	"github.com/goliatone/go-payment-ingest/orders"
)

type Server struct {
	Ledger      core.Ledger
	Ingest      *ingest.Service
	Orders      *orders.Service
	Logger      core.Logger
	ServiceName string
	Addr        string
}

func New(store core.Ledger, ingestService *ingest.Service, orderService *orders.Service) *Server {
	return &Server{
		Ledger:      store,
		Ingest:      ingestService,
		Orders:      orderService,
		ServiceName: "payment-ingest",
		Addr:        ":8080",
	}
}

// Handler builds the route tree. Webhook deliveries answer 200 or 400 only;
// the admin and order APIs use the full error envelope.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Post("/webhook/{provider}", s.handleWebhook)

	router.Route("/api/orders", func(router chi.Router) {
		router.Post("/create", s.handleCreateOrder)
		router.Get("/config", s.handleOrderConfig)
	})

	router.Route("/mock", func(router chi.Router) {
		router.Get("/orders", s.handleListOrders)
		router.Get("/orders/{id}", s.handleGetOrder)
		router.Post("/orders/pending", s.handleCreatePendingOrder)
		router.Patch("/orders/{id}/status", s.handleUpdateOrderStatus)
		router.Get("/customers", s.handleListCustomers)
		router.Get("/customers/{id}", s.handleGetCustomer)
		router.Delete("/data", s.handleClearData)
		router.Get("/health", s.handleHealth)
	})

	return router
}

// Run serves until the context is canceled, then drains with a short timeout.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return errors.New("server: server is nil")
	}
	httpServer := &http.Server{
		Addr:              s.addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()
	s.logInfo(ctx, "http server listening", map[string]any{"addr": s.addr()})

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ordersCount := -1
	customersCount := -1
	if counter, ok := s.Ledger.(interface{ Counts() (int, int) }); ok {
		ordersCount, customersCount = counter.Counts()
	} else if s.Ledger != nil {
		if listed, err := s.Ledger.ListOrders(r.Context()); err == nil {
			ordersCount = len(listed)
		}
		if listed, err := s.Ledger.ListCustomers(r.Context()); err == nil {
			customersCount = len(listed)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        s.serviceName(),
		"status":         "UP",
		"ordersCount":    ordersCount,
		"customersCount": customersCount,
	})
}

func (s *Server) addr() string {
	if s != nil && s.Addr != "" {
		return s.Addr
	}
	return ":8080"
}

func (s *Server) serviceName() string {
	if s != nil && s.ServiceName != "" {
		return s.ServiceName
	}
	return "payment-ingest"
}

func (s *Server) logInfo(ctx context.Context, message string, fields map[string]any) {
	logger := s.logger()
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(message, flattenFields(fields)...)
}

func (s *Server) logWarn(ctx context.Context, message string, fields map[string]any) {
	logger := s.logger()
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message, flattenFields(fields)...)
}

func (s *Server) logger() core.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return glog.Nop()
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
