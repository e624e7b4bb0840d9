package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"arena-client/internal/config"
	"arena-client/internal/logging"
	"arena-client/internal/netclient"
	"arena-client/internal/session"
)

// SessionSource reports session state.
type SessionSource interface {
	Stats() session.Stats
}

// NetSource reports connection state.
type NetSource interface {
	Stats() netclient.Stats
}

// RouterConfig contains the dependencies of the debug router.
type RouterConfig struct {
	Gatherer prometheus.Gatherer
	Session  SessionSource
	Net      NetSource
	RunID    string
	Origins  []string

	// Logger receives one entry per request. Nil disables request logging.
	Logger *zap.Logger
}

// Snapshot is the body of /debug/session.
type Snapshot struct {
	RunID   string           `json:"runId"`
	Uptime  string           `json:"uptime"`
	Session *session.Stats   `json:"session,omitempty"`
	Net     *netclient.Stats `json:"net,omitempty"`
}

// NewRouter builds the debug router. It starts no goroutines.
func NewRouter(cfg RouterConfig) *chi.Mux {
	started := time.Now()

	r := chi.NewRouter()
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger.Named("debug")))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/debug/session", func(w http.ResponseWriter, r *http.Request) {
		body := Snapshot{RunID: cfg.RunID, Uptime: time.Since(started).Round(time.Second).String()}
		if cfg.Session != nil {
			s := cfg.Session.Stats()
			body.Session = &s
		}
		if cfg.Net != nil {
			n := cfg.Net.Stats()
			body.Net = &n
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	r.Handle("/debug/pprof/{name}", http.HandlerFunc(pprof.Index))

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Server serves the debug router until its context ends.
type Server struct {
	cfg     config.DebugConfig
	handler http.Handler
	log     *zap.Logger
}

// NewServer creates a debug server.
func NewServer(cfg config.DebugConfig, handler http.Handler, log *zap.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, log: logging.OrNop(log).Named("debug")}
}

// Run listens until ctx is cancelled. A disabled server returns immediately,
// and a failure to listen is logged without stopping the client.
// Non-loopback addresses are forced to 127.0.0.1.
func (s *Server) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("📊 debug server disabled")
		return nil
	}

	addr := LoopbackOnly(s.cfg.Addr)
	if addr != s.cfg.Addr {
		s.log.Warn("⚠️ debug server forced to localhost", zap.String("requested", s.cfg.Addr))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("📊 debug server starting",
			zap.String("metrics", "http://"+addr+"/metrics"),
			zap.String("pprof", "http://"+addr+"/debug/pprof/"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("⚠️ debug server error", zap.Error(err))
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// LoopbackOnly rewrites addr to bind 127.0.0.1 unless its host is already a
// loopback address.
func LoopbackOnly(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "127.0.0.1:6060"
	}
	if host == "localhost" {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}
	return net.JoinHostPort("127.0.0.1", port)
}
