package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-portal/internal/model"
	"hostel-portal/internal/service"
)

const pictureField = "profilePicture"

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	p, err := h.profiles.Me(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}

	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), user, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}

	fh, err := c.FormFile(pictureField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + pictureField + " file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	resp, err := h.profiles.UploadPicture(c.Request.Context(), user, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProfileHandler) DeletePicture(c *gin.Context) {
	user, ok := mustViewer(c)
	if !ok {
		return
	}
	if err := h.profiles.DeletePicture(c.Request.Context(), user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile picture removed"})
}
