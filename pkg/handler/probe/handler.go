package probe

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/probe"
)

// Handler serves the probe catalog API.
type Handler struct {
	probeSvc *probe.Service
}

func NewHandler(probeSvc *probe.Service) *Handler {
	return &Handler{probeSvc: probeSvc}
}

// List returns the whole catalog.
func (h *Handler) List(c *gin.Context) {
	probes, err := h.probeSvc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "не удалось получить список проб: "+err.Error())
		return
	}
	response.Success(c, probes, "OK")
}

// Get returns one probe by its public ID.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.probeSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "проба не найдена")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, p, "OK")
}

// Create adds one probe.
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	p, err := h.probeSvc.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, p, "проба создана")
}

// Update applies a partial probe update.
func (h *Handler) Update(c *gin.Context) {
	var req model.UpdateProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	p, err := h.probeSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "проба не найдена")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, p, "проба обновлена")
}

// Delete removes one probe.
func (h *Handler) Delete(c *gin.Context) {
	err := h.probeSvc.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "проба не найдена")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, nil, "проба удалена")
}

// UpdateStatus moves a probe to another workflow status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	if err := h.probeSvc.UpdateStatus(c.Request.Context(), &req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "проба не найдена")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, nil, "статус обновлен")
}

// UpdatePriority changes a probe's priority.
func (h *Handler) UpdatePriority(c *gin.Context) {
	var req model.UpdatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	if err := h.probeSvc.UpdatePriority(c.Request.Context(), &req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "проба не найдена")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, nil, "приоритет обновлен")
}

// Search finds probes by substring or concentration range.
func (h *Handler) Search(c *gin.Context) {
	var req model.SearchProbesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	probes, err := h.probeSvc.Search(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, probes, "OK")
}

// ManageTags adds or removes a tag on the listed probes.
func (h *Handler) ManageTags(c *gin.Context) {
	var req model.TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	if err := h.probeSvc.ManageTags(c.Request.Context(), &req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, nil, "теги обновлены")
}

// FilterByTags selects probes by tags.
func (h *Handler) FilterByTags(c *gin.Context) {
	var req model.FilterByTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	probes, err := h.probeSvc.FilterByTags(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, probes, "OK")
}

// BatchTags applies tag rules in bulk.
func (h *Handler) BatchTags(c *gin.Context) {
	var req model.BatchTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	applied, err := h.probeSvc.BatchTags(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, gin.H{"applied_rules": applied}, "правила применены")
}

// AddField sets a numeric field on probes matched by a name pattern.
func (h *Handler) AddField(c *gin.Context) {
	var req model.AddFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	updated, err := h.probeSvc.AddFieldByNamePattern(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, gin.H{"updated_probes": updated},
		fmt.Sprintf("Поле %q добавлено", req.FieldName))
}

// StateTags restamps the physical-state tags across the catalog.
func (h *Handler) StateTags(c *gin.Context) {
	updated, err := h.probeSvc.ApplyStateTags(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"updated_probes": updated}, "теги состояний добавлены")
}

// Group assigns a fresh group to the listed probes.
func (h *Handler) Group(c *gin.Context) {
	var req model.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	groupID, err := h.probeSvc.Group(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, gin.H{"group_id": groupID}, "группа создана")
}

// Statistics summarizes the catalog.
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.probeSvc.Statistics(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, stats, "OK")
}

// Recalculate refreshes the derived fields of every probe.
func (h *Handler) Recalculate(c *gin.Context) {
	stats, err := h.probeSvc.Recalculate(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, stats, "пересчет выполнен")
}
