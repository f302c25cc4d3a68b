package snapshot

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/internal/app/middleware"
	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/domain/repository"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/snapshot"
)

// Handler serves the snapshot history API.
type Handler struct {
	snapshotSvc *snapshot.Service
}

func NewHandler(snapshotSvc *snapshot.Service) *Handler {
	return &Handler{snapshotSvc: snapshotSvc}
}

// List returns the snapshot history, newest first.
func (h *Handler) List(c *gin.Context) {
	snapshots, err := h.snapshotSvc.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, snapshots, "OK")
}

// Get returns one snapshot's metadata.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.snapshotSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "снимок не найден")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, s, "OK")
}

// Payload streams the stored catalog state of one snapshot.
func (h *Handler) Payload(c *gin.Context) {
	data, meta, err := h.snapshotSvc.Payload(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "снимок не найден")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+meta.Filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Compare diffs two snapshots named by the v1 (from) and v2 (to) query
// parameters.
func (h *Handler) Compare(c *gin.Context) {
	from := c.Query("v1")
	to := c.Query("v2")
	if from == "" || to == "" {
		response.Fail(c, http.StatusBadRequest, "необходимо указать параметры v1 и v2")
		return
	}
	cmp, err := h.snapshotSvc.Compare(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "снимок не найден")
			return
		}
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	response.Success(c, cmp, "OK")
}

// Create takes a manual snapshot of the current catalog.
func (h *Handler) Create(c *gin.Context) {
	var req model.CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	description := req.Description
	if description == "" {
		description = "Ручной снимок"
	}
	s, err := h.snapshotSvc.Create(c.Request.Context(), description,
		middleware.CurrentUserID(c), model.ChangeTypeManual)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if s == nil {
		response.Success(c, nil, "состояние не изменилось, снимок не создан")
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, gin.H{"hash": s.Hash}, "снимок создан")
}

// Restore replaces the catalog with the state of one snapshot. The current
// state is backed up first.
func (h *Handler) Restore(c *gin.Context) {
	err := h.snapshotSvc.Restore(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "снимок не найден")
			return
		}
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil, "состояние восстановлено")
}

// Delete removes one snapshot and its payload file.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.snapshotSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "снимок не найден")
			return
		}
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil, "снимок удален")
}
