// Package remote implements the Remote Order Service: the shared,
// network-reachable persistence endpoint, backed by a single JSON
// file on the serving host.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/audit"
	"github.com/oxxo-demo/orderhub/internal/order"
)

type Server struct {
	store    *FileStore
	audit    *audit.Manager
	logger   *zap.Logger
	validate *validatorv10.Validate
	server   *http.Server
}

func New(store *FileStore, auditMgr *audit.Manager, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		audit:    auditMgr,
		logger:   logger,
		validate: validatorv10.New(),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("remote order service listening", zap.String("port", port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/api/orders", s.handleGetOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.handleSaveOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", s.handleClearOrders).Methods(http.MethodDelete)
	r.HandleFunc("/api/orders", s.handleOptions).Methods(http.MethodOptions)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Customer and cashier devices sit on different hosts of a local
// network, so every response allows any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

type saveOrderRequest struct {
	OrderID   string      `json:"orderId" validate:"required"`
	OrderData order.Order `json:"orderData"`
}

func (s *Server) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.All()
	if err != nil {
		s.logger.Error("failed to read orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error interno del servidor"})
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleSaveOrder(w http.ResponseWriter, r *http.Request) {
	var req saveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Datos inválidos"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Datos inválidos"})
		return
	}
	if req.OrderData.ID == "" {
		req.OrderData.ID = req.OrderID
	}

	// Previous status, for the audit trail only.
	var oldStatus order.Status
	if prev, err := s.store.Get(req.OrderID); err == nil && prev != nil {
		oldStatus = prev.Status
	}

	if err := s.store.Save(req.OrderID, req.OrderData); err != nil {
		s.logger.Error("failed to save order", zap.String("order_id", req.OrderID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error interno del servidor"})
		return
	}

	s.audit.Record(r.Context(), audit.Entry{
		Timestamp:  time.Now(),
		Operation:  "save",
		OrderID:    req.OrderID,
		OldStatus:  oldStatus,
		NewStatus:  req.OrderData.Status,
		RemoteAddr: r.RemoteAddr,
	})

	s.logger.Debug("order saved", zap.String("order_id", req.OrderID))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orderId": req.OrderID})
}

func (s *Server) handleClearOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("failed to clear orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error interno del servidor"})
		return
	}

	s.audit.Record(r.Context(), audit.Entry{
		Timestamp:  time.Now(),
		Operation:  "clear",
		RemoteAddr: r.RemoteAddr,
	})

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Órdenes limpiadas"})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
