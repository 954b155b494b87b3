package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chorus/internal/orchestrator"
	"chorus/internal/stats"

	"github.com/gin-gonic/gin"
)

// Runner is the slice of the orchestrator the API needs; narrowed for tests.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) orchestrator.Summary
}

type ModelLister interface {
	IDs() []string
}

type StatsSource interface {
	RecordRun(orchestrator.Summary)
	Snapshot() stats.Snapshot
}

type SummaryConsumer interface {
	Report(orchestrator.Summary)
}

type handlers struct {
	runner     Runner
	models     ModelLister
	stats      StatsSource
	reporter   SummaryConsumer
	maxTimeout time.Duration
}

func newHandlers(cfg ServerConfig) *handlers {
	return &handlers{
		runner:     cfg.Runner,
		models:     cfg.Models,
		stats:      cfg.Stats,
		reporter:   cfg.Reporter,
		maxTimeout: cfg.MaxTimeout,
	}
}

func (h *handlers) register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/orchestrate", h.handleOrchestrate)
	if h.models != nil {
		group.GET("/models", h.handleModels)
	}
}

// orchestrateRequest is the caller-facing entry point shape. MaxRetries is a
// pointer so "absent" (use configured default) and "zero" (single attempt)
// stay distinguishable.
type orchestrateRequest struct {
	Prompt     string   `json:"prompt"`
	Models     []string `json:"models"`
	TimeoutMs  int      `json:"timeoutMs"`
	MaxRetries *int     `json:"maxRetries"`
}

func (h *handlers) handleOrchestrate(c *gin.Context) {
	var req orchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt must not be empty"})
		return
	}
	if len(req.Models) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "models must not be empty"})
		return
	}
	if req.TimeoutMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeoutMs must be >= 0"})
		return
	}
	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if h.maxTimeout > 0 && timeout > h.maxTimeout {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeoutMs exceeds configured maximum"})
		return
	}
	maxRetries := -1
	if req.MaxRetries != nil {
		if *req.MaxRetries < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxRetries must be >= 0"})
			return
		}
		maxRetries = *req.MaxRetries
	}

	// The run must settle every model even if the client disconnects, so it
	// does not inherit the request context.
	summary := h.runner.Run(context.Background(), orchestrator.Request{
		Prompt:     req.Prompt,
		Models:     req.Models,
		Timeout:    timeout,
		MaxRetries: maxRetries,
	})
	if h.stats != nil {
		h.stats.RecordRun(summary)
	}
	if h.reporter != nil {
		h.reporter.Report(summary)
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.models.IDs()})
}
