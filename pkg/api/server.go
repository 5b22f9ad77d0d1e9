// Package api is the transport collaborator: it translates HTTP
// requests into the service's submit/modify/cancel operations and maps
// the core's error taxonomy onto status codes. The core knows nothing
// about transports.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/pkg/book"
	"github.com/marketgrid/limitbook/pkg/service"
)

type Server struct {
	svc    *service.Service
	router *mux.Router
	log    *zap.SugaredLogger
}

func NewServer(svc *service.Service, log *zap.SugaredLogger) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.HandleFunc("/orders", s.handleCreateOrder).Methods("POST")
	s.router.HandleFunc("/orders/{id}", s.handleModifyOrder).Methods("PUT")
	s.router.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods("DELETE")
	s.router.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routed handler with middleware applied, for tests
// and for Start.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails or srv is shut down by the caller.
func (s *Server) Start(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		s.log.Infow("api_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("api_serve_failed", "err", err)
		}
	}()
	return srv
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"service": "limitbook"})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := book.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	o, err := s.svc.Submit(side, req.Price, req.Quantity)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse(o))
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req ModifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	o, err := s.svc.Modify(id, req.Quantity)
	if errors.Is(err, book.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found", "")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid modification", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(o))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := s.svc.Cancel(id)
	if errors.Is(err, book.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found", "")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cancel failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(o))
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	b := s.svc.Book()
	respondJSON(w, http.StatusOK, BookSnapshot{
		Bids:      b.BidLevels(),
		Asks:      b.AskLevels(),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func orderID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", err.Error())
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: error, Message: message})
}
