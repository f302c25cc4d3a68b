package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/probelab/probelab-app/pkg/domain/model"
	"github.com/probelab/probelab-app/pkg/response"
	"github.com/probelab/probelab-app/pkg/service/user"
)

// Handler serves login and token refresh.
type Handler struct {
	userSvc *user.Service
}

func NewHandler(userSvc *user.Service) *Handler {
	return &Handler{userSvc: userSvc}
}

// Login verifies credentials and returns a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	tokens, err := h.userSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, tokens, "вход выполнен")
}

// Refresh exchanges a refresh token for a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "некорректные параметры: "+err.Error())
		return
	}
	tokens, err := h.userSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "не удалось обновить токен")
		return
	}
	response.Success(c, tokens, "токен обновлен")
}
