package series

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/series"
)

// Handler serves series validation and creation.
type Handler struct {
	seriesSvc *series.Service
}

func NewHandler(seriesSvc *series.Service) *Handler {
	return &Handler{seriesSvc: seriesSvc}
}

// Validate parses a base name and previews the series it would generate.
// A malformed name is a normal response, not an error status: the frontend
// shows the message inline while the user types.
func (h *Handler) Validate(c *gin.Context) {
	var req model.ValidateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	result, err := h.seriesSvc.Validate(c.Request.Context(), req.BaseName)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, result, "OK")
}

// Create expands a base name and persists the full series.
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	result, err := h.seriesSvc.Create(c.Request.Context(), &req, middleware.CurrentUserID(c))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, result, "серия создана")
}
