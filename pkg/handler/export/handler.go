package export

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/export"
)

// Handler serves CSV export and import of the catalog.
type Handler struct {
	exportSvc *export.Service
}

func NewHandler(exportSvc *export.Service) *Handler {
	return &Handler{exportSvc: exportSvc}
}

// Export writes the catalog to a CSV file and serves it as a download.
func (h *Handler) Export(c *gin.Context) {
	path, err := h.exportSvc.Export(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "экспорт не удался: "+err.Error())
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Import reads probes from an uploaded CSV file.
func (h *Handler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "файл не передан: "+err.Error())
		return
	}
	defer file.Close()

	stats, err := h.exportSvc.Import(c.Request.Context(), file, middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "импорт не удался: "+err.Error())
		return
	}
	response.Success(c, stats, "импорт выполнен")
}
