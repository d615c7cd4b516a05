package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-portal/internal/role"
)

type MenuHandler struct{}

func NewMenuHandler() *MenuHandler {
	return &MenuHandler{}
}

func (h *MenuHandler) Get(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"role":      user.Role.String(),
		"title":     user.Role.Title(),
		"dashboard": role.DashboardPath(user.Role),
		"items":     role.Menu(user.Role),
	})
}
