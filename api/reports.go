package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/audioreport/server"
)

// DownloadReport handles GET /v1/reports/:name.
func (h *Handler) DownloadReport(c *gin.Context) {
	obj, err := h.reports.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer obj.Close()

	c.DataFromReader(http.StatusOK, -1, obj.ContentType, obj, map[string]string{
		"Content-Disposition": `attachment; filename="` + obj.Name + `"`,
	})
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// ListModels handles GET /v1/models.
func (h *Handler) ListModels(c *gin.Context) {
	server.RespondOK(c, ModelsResponse{Models: h.models.AllowList(), Default: DefaultModel})
}
