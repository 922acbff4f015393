// Package dashboard serves the experiment results and the simulator over HTTP.
package dashboard

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/abeval-cli/internal/chart"
	"github.com/KaramelBytes/abeval-cli/internal/config"
	"github.com/KaramelBytes/abeval-cli/internal/dataset"
	"github.com/KaramelBytes/abeval-cli/internal/experiment"
	"github.com/KaramelBytes/abeval-cli/internal/logging"
)

// PreviewRows is the number of dataset rows shown on the page.
const PreviewRows = 5

const shutdownTimeout = 5 * time.Second

//go:embed templates/index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// Server holds the precomputed evaluation and the HTTP engine.
// Everything except the metrics is read-only after New.
type Server struct {
	addr    string
	alpha   float64
	ds      *dataset.Dataset
	result  experiment.ComparisonResult
	rec     experiment.Recommendation
	chart   []byte
	engine  *gin.Engine
	metrics *metrics
	log     *zap.Logger
	// simLimiter bounds simulator runs across all clients.
	simLimiter *rate.Limiter
	origins    []string
}

// New evaluates ds once and builds the routes.
func New(ds *dataset.Dataset, cfg *config.Global, logger *zap.Logger) (*Server, error) {
	if ds == nil {
		return nil, errors.New("dashboard: dataset is required")
	}
	if cfg == nil {
		return nil, errors.New("dashboard: config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:    cfg.DashboardAddr,
		alpha:   cfg.Alpha,
		ds:      ds,
		metrics: newMetrics(),
		log:     logger.Named("dashboard"),
		origins: cfg.DashboardAllowedOrigins,
	}
	s.simLimiter = newSimLimiter(cfg.DashboardSimRate)
	for _, o := range s.origins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return nil, fmt.Errorf("dashboard: invalid allowed origin %q", o)
		}
	}
	s.result = experiment.Evaluate(ds.Observations)
	s.rec = experiment.Recommend(s.result, s.alpha)

	var buf bytes.Buffer
	switch err := chart.WritePNG(&buf, []experiment.ArmSummary{s.result.A, s.result.B}, cfg.ChartOptions()); {
	case err == nil:
		s.chart = buf.Bytes()
	case errors.Is(err, chart.ErrNoData):
		s.log.Warn("no data to plot")
	default:
		return nil, fmt.Errorf("render chart: %w", err)
	}

	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware(), s.accessLog())
	r.GET("/", s.handleIndex)
	r.GET("/chart.png", s.handleChart)
	api := r.Group("/api")
	if len(s.origins) > 0 {
		api.Use(cors.New(s.corsConfig()))
		// Preflight requests only reach the middleware on a matched route.
		for _, path := range []string{"/summary", "/simulate"} {
			api.OPTIONS(path, func(c *gin.Context) { c.Status(http.StatusNoContent) })
		}
	}
	api.GET("/summary", s.handleSummary)
	api.GET("/simulate", s.handleSimulate)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
	return r
}

func (s *Server) corsConfig() cors.Config {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range s.origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowOrigins = nil
			return c
		}
		c.AllowOrigins = append(c.AllowOrigins, o)
	}
	return c
}

// newSimLimiter allows perSec simulations per second with a burst of twice
// that, at least one. A non-positive rate disables limiting.
func newSimLimiter(perSec float64) *rate.Limiter {
	if !(perSec > 0) {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(math.Ceil(perSec)) * 2
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := s.log.With(zap.String("path", c.Request.URL.Path))
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), reqLog))
		c.Next()
		reqLog.Debug("request",
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Handler exposes the routes for embedding or testing.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("dashboard stopped")
	return nil
}
