// Package api serves the dex JSON-RPC namespace over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const Namespace = "dex"

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Address        string
	AllowedOrigins []string
	RatePerMinute  int
	RouterContract string
	MaxGas         uint64
}

// Server wraps the HTTP server and the JSON-RPC handler.
type Server struct {
	cfg        ServerConfig
	rpc        *rpc.Server
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(cfg ServerConfig, source SnapshotSource, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(Namespace, NewService(source, cfg.RouterContract, cfg.MaxGas)); err != nil {
		return nil, fmt.Errorf("register %s service: %w", Namespace, err)
	}

	s := &Server{cfg: cfg, rpc: rpcServer, logger: logger}
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	if s.cfg.RatePerMinute > 0 {
		mux.Use(httprate.LimitByIP(s.cfg.RatePerMinute, time.Minute))
	}

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"forgedex"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// no timeout on /ws, its connections are long-lived
	mux.With(middleware.Timeout(30*time.Second)).Handle("/rpc", s.rpc)
	mux.Handle("/ws", s.rpc.WebsocketHandler(s.cfg.AllowedOrigins))

	return newCORSHandler(s.cfg.AllowedOrigins, mux)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server starting",
		zap.String("address", s.cfg.Address),
		zap.Strings("allowed_origins", s.cfg.AllowedOrigins),
		zap.Int("rate_per_minute", s.cfg.RatePerMinute),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server and the RPC handler.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server shutting down")
	err := s.httpServer.Shutdown(ctx)
	s.rpc.Stop()
	return err
}

func newCORSHandler(allowedOrigins []string, next http.Handler) http.Handler {
	allowCredentials := !(len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Accept-Encoding"},
		AllowCredentials: allowCredentials,
		MaxAge:           3600,
	}).Handler(next)
}
