package api

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/pipeline"
	"github.com/kbukum/audioreport/report"
)

const (
	// DefaultModel is used when the form omits model.
	DefaultModel = "medium"
	// DefaultFormat is used when the form omits format.
	DefaultFormat = "txt"
)

// Processor runs one transcription request.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Response
}

// ReportStore opens generated reports for download.
type ReportStore interface {
	Open(ctx context.Context, name string) (*report.Object, error)
}

// ModelCatalog lists selectable models.
type ModelCatalog interface {
	AllowList() []string
}

// Options configures the handler.
type Options struct {
	// UploadDir receives per-request upload directories. Empty uses
	// os.TempDir.
	UploadDir string
	// Serialize runs one transcription at a time. Required when reports
	// are written to fixed file names.
	Serialize bool
}

// Handler serves the transcription API.
type Handler struct {
	processor Processor
	reports   ReportStore
	models    ModelCatalog
	opts      Options
	log       *logger.Logger

	mu sync.Mutex
}

// NewHandler creates a Handler.
func NewHandler(p Processor, reports ReportStore, models ModelCatalog, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Get("api")
	}
	return &Handler{processor: p, reports: reports, models: models, opts: opts, log: log}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.POST("/transcriptions", h.Transcribe)
	v1.GET("/reports/:name", h.DownloadReport)
	v1.GET("/models", h.ListModels)
}
