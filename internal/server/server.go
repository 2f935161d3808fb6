package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"upbit-gpt-trader/internal/interfaces"
	"upbit-gpt-trader/internal/logger"
	"upbit-gpt-trader/internal/metrics"
	"upbit-gpt-trader/internal/trace"
	"upbit-gpt-trader/internal/types"
)

// Server exposes the trade relay over HTTP.
type Server struct {
	engine   interfaces.Engine
	router   *mux.Router
	validate *validator.Validate
	srv      *http.Server
}

func New(listen string, engine interfaces.Engine) *Server {
	s := &Server{
		engine:   engine,
		router:   mux.NewRouter(),
		validate: validator.New(),
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // the whole upstream pipeline runs inside one request
	}
	metrics.Register()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/v1/trade", s.handleTrade).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Start blocks serving HTTP until Shutdown or failure.
func (s *Server) Start() error {
	logger.Info(context.Background(), "HTTP server starting", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	ctx, span := trace.StartSpan(r.Context(), "server.handleTrade")
	defer span.End()

	var req types.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade request: "+err.Error())
		return
	}

	logger.Info(ctx, "Trade request received",
		"ticker", req.Ticker,
		"volume", req.Volume,
		"price", req.Price,
	)

	result, err := s.engine.Step(ctx, req)
	if err != nil {
		// Everything past validation is an upstream concern: exchange,
		// advisory, or a malformed payload from either.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
