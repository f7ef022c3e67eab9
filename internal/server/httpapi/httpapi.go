// Package httpapi serves the HTTP side of the server: the health check,
// Prometheus metrics and the WebSocket proximity feed.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Health is the body of GET /health.
type Health struct {
	Service       string    `json:"service"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	Subscriptions int       `json:"subscriptions"`
}

// SubscriptionCounter reports live proximity-feed subscriptions.
type SubscriptionCounter interface {
	Count() int
}

type Server struct {
	address        string
	ws             http.Handler
	subs           SubscriptionCounter
	allowedOrigins []string
	clock          clock.Clock
	logger         logging.Logger
}

// NewServer returns a server for addr. ws handles /ws and may be nil, in
// which case the route is not mounted. subs feeds the subscription count of
// /health and may be nil.
func NewServer(addr string, ws http.Handler, subs SubscriptionCounter, allowedOrigins []string, c clock.Clock, l logging.Logger) *Server {
	if c == nil {
		c = clock.Real{}
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &Server{
		address:        addr,
		ws:             ws,
		subs:           subs,
		allowedOrigins: allowedOrigins,
		clock:          c,
		logger:         l.With("module", "http_server"),
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if s.ws != nil {
		r.Method(http.MethodGet, "/ws", s.ws)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{
		Service:   common.ServiceName,
		Status:    "healthy",
		Timestamp: s.clock.Now().UTC(),
		Version:   common.Version,
	}
	if s.subs != nil {
		h.Subscriptions = s.subs.Count()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			_ = srv.Close()
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
