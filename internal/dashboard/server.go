// Package dashboard serves the demand views over HTTP.
package dashboard

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/gasdash/internal/runtime"
	"github.com/vinodismyname/gasdash/internal/telemetry"
	"github.com/vinodismyname/gasdash/internal/view"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
)

// Options configures the HTTP surface. Zero values disable the optional
// pieces.
type Options struct {
	LogoPath   string
	Controller *runtime.Controller
	Counters   *telemetry.Counters
	Logger     zerolog.Logger
	Debug      bool
}

// Server is the gin HTTP dashboard.
type Server struct {
	router *gin.Engine
	views  *view.Builder
	opts   Options
}

// New builds the router. gin's default logger is replaced so that nothing
// is written to stdout, which the stdio transport owns.
func New(views *view.Builder, opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{router: gin.New(), views: views, opts: opts}
	s.router.Use(gin.Recovery(), s.requestLogger(), s.limiter())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/years", s.getYears)
		api.GET("/entities", s.getEntities)
		api.GET("/lookup", s.getLookup)
		api.GET("/percentuals/:mode", s.getPercentuals)
		api.GET("/series", s.getSeries)
		api.GET("/map/:kind", s.getMap)
		api.GET("/dashboard", s.getDashboard)
	}
	s.router.GET("/charts/line.png", s.getLineChart)
	s.router.GET("/charts/bars.png", s.getBarsChart)
	s.router.GET("/logo", s.getLogo)
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := s.opts.Logger.With().Str("call_id", uuid.NewString()).Str("path", c.Request.URL.Path).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if s.opts.Counters != nil {
			s.opts.Counters.Record("GET "+route, status >= 400)
		}
		evt := logger.Debug()
		if status >= 500 {
			evt = logger.Warn()
		}
		evt.Int("status", status).Dur("duration", time.Since(start)).Msg("http request served")
	}
}

func (s *Server) limiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl := s.opts.Controller
		if ctrl == nil {
			c.Next()
			return
		}
		if err := ctrl.TryAcquireRequest(c.Request.Context()); err != nil {
			fail(c, mcperr.BusyResource, "")
			return
		}
		defer ctrl.ReleaseRequest()

		limits := ctrl.LimitsSnapshot()
		if limits.OperationTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), limits.OperationTimeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", addr).Msg("http dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
