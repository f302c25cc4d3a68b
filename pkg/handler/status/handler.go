package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/status"
)

// Handler serves the status and priority catalogs.
type Handler struct {
	statusSvc *status.Service
}

func NewHandler(statusSvc *status.Service) *Handler {
	return &Handler{statusSvc: statusSvc}
}

func toStatusResponses(statuses []*model.Status) []*model.StatusResponse {
	out := make([]*model.StatusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = &model.StatusResponse{ID: s.ID, Name: s.Name, Color: s.Color}
	}
	return out
}

func toPriorityResponses(priorities []*model.Priority) []*model.PriorityResponse {
	out := make([]*model.PriorityResponse, len(priorities))
	for i, p := range priorities {
		out[i] = &model.PriorityResponse{ID: p.ID, Name: p.Name, Level: p.Level}
	}
	return out
}

// ListStatuses returns every workflow status.
func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.statusSvc.ListStatuses(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, toStatusResponses(statuses), "OK")
}

// CreateStatus adds a workflow status.
func (h *Handler) CreateStatus(c *gin.Context) {
	var req model.CreateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	s, err := h.statusSvc.CreateStatus(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated,
		&model.StatusResponse{ID: s.ID, Name: s.Name, Color: s.Color}, "статус создан")
}

// ListPriorities returns every priority level.
func (h *Handler) ListPriorities(c *gin.Context) {
	priorities, err := h.statusSvc.ListPriorities(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, toPriorityResponses(priorities), "OK")
}

// CreatePriority adds a priority level.
func (h *Handler) CreatePriority(c *gin.Context) {
	var req model.CreatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	p, err := h.statusSvc.CreatePriority(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated,
		&model.PriorityResponse{ID: p.ID, Name: p.Name, Level: p.Level}, "приоритет создан")
}
