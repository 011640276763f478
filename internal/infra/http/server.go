package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Spok95/site-materials/internal/infra/metrics"
	"github.com/gin-gonic/gin"
)

type Options struct {
	Env           string
	ExposeMetrics bool
	// Location часовой пояс для даты в именах выгрузок.
	Location *time.Location
}

type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

func New(addr string, svc Ledger, m *metrics.Metrics, log *slog.Logger, opts Options) *Server {
	if opts.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	r := gin.New()
	r.Use(RequestID(), Recovery(log), Logger(log), Metrics(m))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h := &handlers{
		svc: svc,
		log: log,
		now: func() time.Time { return time.Now().In(opts.Location) },
	}
	h.register(r)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: r,
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start блокирует до остановки; штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
