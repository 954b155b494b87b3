package httpapi

import (
	"errors"
	"net/http"
	"time"

	"chorus/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes the orchestration engine over a minimal HTTP API:
// POST /v1/orchestrate, GET /v1/models, GET /health, GET /stats.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	Addr       string
	Runner     Runner
	Models     ModelLister
	Stats      StatsSource
	Reporter   SummaryConsumer
	MaxTimeout time.Duration
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("http server requires a runner")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8085"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "chorus"})
	})
	h := newHandlers(cfg)
	h.register(router.Group("/v1"))
	if cfg.Stats != nil {
		router.GET("/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, cfg.Stats.Snapshot())
		})
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Run blocks serving requests until the listener fails.
func (s *Server) Run() error {
	logger.Infof("http api listening on %s", s.addr)
	return s.router.Run(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("http %s %s status=%d elapsed=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Truncate(time.Millisecond))
	}
}
