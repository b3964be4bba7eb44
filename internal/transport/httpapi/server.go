// Package httpapi is the HTTP transport for the Validator: it exposes the
// wsapi/2.0/verify endpoint, the inter-replica /sync and /resync endpoints,
// and a Prometheus /metrics endpoint, on top of gin (spec §4.5, §4.6).
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	syncengine "github.com/timhilliard/yubistack/internal/sync"
	"github.com/timhilliard/yubistack/internal/validator"
)

// Config holds the transport's tunables (SPEC_FULL.md HTTP transport
// module).
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimitRPS    int
}

// DefaultConfig returns sane defaults for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimitRPS:    100,
	}
}

// Server is the gin-backed HTTP transport wrapping a Validator and its
// Sync engine.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	validator  *validator.Validator
	syncEngine *syncengine.Engine
	logger     log.Logger
}

// NewServer builds a Server; call Start to begin serving.
func NewServer(cfg Config, v *validator.Validator, engine *syncengine.Engine, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		config:     cfg,
		router:     router,
		validator:  v,
		syncEngine: engine,
		logger:     logger,
	}

	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.Use(rateLimitMiddleware(cfg.RateLimitRPS))
	s.registerRoutes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// loggingMiddleware logs each request's outcome at info level, in the
// structured style the rest of the module uses.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

// rateLimitMiddleware is a per-client-IP token bucket, the same shape the
// original API gateway uses for its legacy limiter.
func rateLimitMiddleware(rps int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := &sync.Map{}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiterIface, _ := limiters.LoadOrStore(ip, rate.NewLimiter(rate.Limit(rps), rps*2))
		limiter := limiterIface.(*rate.Limiter)
		if !limiter.Allow() {
			c.String(http.StatusTooManyRequests, "RATE_LIMIT\n")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

// metricsHandler serves Prometheus metrics alongside the domain routes.
func metricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return gin.WrapH(h)
}
