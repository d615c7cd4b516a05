package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-portal/internal/model"
	"hostel-portal/internal/service"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List answers GET /tasks?status=pending.
func (h *TaskHandler) List(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}

	var status model.TaskStatus
	if raw := c.Query("status"); raw != "" && raw != "all" {
		s, ok := model.ParseTaskStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		status = s
	}

	tickets, err := h.tasks.List(c.Request.Context(), user, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tickets})
}

func (h *TaskHandler) Summary(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	sum, err := h.tasks.Summary(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// UpdateStatus advances one task. The dashboard's confirm dialog answer
// arrives as the confirmed flag.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, ok := model.ParseTaskStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + req.Status})
		return
	}

	tickets, err := h.tasks.Advance(c.Request.Context(), user, c.Param("id"), target, service.Preconfirmed(req.Confirmed))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tickets})
}
