package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/assetgraph/controller"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/importer"
	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/store"
	"github.com/kbukum/assetgraph/version"
)

// GraphSource loads the graph the handlers work on.
type GraphSource interface {
	LoadGraph(ctx context.Context) (*graph.Graph, graph.Report, error)
}

// Importer imports batches of files.
type Importer interface {
	ImportBatch(ctx context.Context, paths []string) ([]*importer.Report, error)
}

// Handler serves the asset graph routes.
type Handler struct {
	service  string
	source   GraphSource
	ctrl     *controller.Controller
	importer Importer
	target   string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithImporter enables POST /import.
func WithImporter(imp Importer) HandlerOption {
	return func(h *Handler) { h.importer = imp }
}

// WithDefaultTarget sets the target used when a request names none.
func WithDefaultTarget(target string) HandlerOption {
	return func(h *Handler) { h.target = target }
}

// NewHandler creates a Handler.
func NewHandler(service string, source GraphSource, ctrl *controller.Controller, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		source:  source,
		ctrl:    ctrl,
		target:  graph.DefaultTarget,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.health)
	r.GET("/graph", h.graph)
	r.POST("/validate", h.validate)
	r.POST("/build", h.build)
	r.POST("/import", h.importFiles)
}

// TargetRequest names the build target of a perform. It may be omitted.
type TargetRequest struct {
	Target string `json:"target"`
}

// ImportRequest lists the files to import.
type ImportRequest struct {
	Paths []string `json:"paths" binding:"required,min=1,dive,required"`
}

// PerformResponse summarizes a perform.
type PerformResponse struct {
	Target       string              `json:"target"`
	State        controller.State    `json:"state"`
	OK           bool                `json:"ok"`
	SetupSkipped bool                `json:"setup_skipped"`
	Visited      int                 `json:"visited"`
	Errors       []*errors.NodeError `json:"errors"`
	DurationMS   int64               `json:"duration_ms"`
}

func (h *Handler) health(c *gin.Context) {
	report := observability.NewServiceHealth(h.service, version.Get().Short())
	graphHealth := observability.Health{Name: "graph", Status: observability.HealthStatusUp}
	if _, _, err := h.source.LoadGraph(c.Request.Context()); err != nil {
		graphHealth.Status = observability.HealthStatusDown
		graphHealth.Message = err.Error()
	}
	report.AddComponent(graphHealth)
	report.AddComponent(observability.Health{
		Name:    "controller",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"state": string(h.ctrl.State())},
	})
	c.JSON(http.StatusOK, report)
}

func (h *Handler) graph(c *gin.Context) {
	g, _, err := h.source.LoadGraph(c.Request.Context())
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, store.ToRecord(g))
}

func (h *Handler) validate(c *gin.Context) {
	h.perform(c, false)
}

func (h *Handler) build(c *gin.Context) {
	h.perform(c, true)
}

func (h *Handler) perform(c *gin.Context, actualRun bool) {
	var req TargetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, errors.InvalidInput("body", err.Error()))
			return
		}
	}
	if req.Target == "" {
		req.Target = h.target
	}

	ctx := c.Request.Context()
	g, _, err := h.source.LoadGraph(ctx)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	out, err := h.ctrl.Perform(ctx, g, controller.Options{Target: req.Target, ActualRun: actualRun})
	if err != nil {
		RespondWithError(c, err)
		return
	}

	resp := PerformResponse{
		Target:       out.Target,
		State:        out.State,
		OK:           out.OK(),
		SetupSkipped: out.SetupSkipped(),
		Visited:      out.Visited(),
		Errors:       append([]*errors.NodeError{}, out.Errors...),
		DurationMS:   out.Duration.Milliseconds(),
	}
	if actualRun && out.OK() {
		errs, err := h.ctrl.Postprocess(ctx, out, true)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		resp.Errors = append(resp.Errors, errs...)
		resp.OK = len(resp.Errors) == 0
	}
	RespondOK(c, resp)
}

func (h *Handler) importFiles(c *gin.Context) {
	if h.importer == nil {
		RespondWithError(c, errors.Conflict("Imports are not enabled."))
		return
	}
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("paths", err.Error()))
		return
	}
	reports, err := h.importer.ImportBatch(c.Request.Context(), req.Paths)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, reports)
}
