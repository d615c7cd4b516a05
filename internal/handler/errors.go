package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-portal/internal/client"
	"hostel-portal/internal/service"
	"hostel-portal/internal/widget"
	"hostel-portal/pkg/logger"
)

var statusByError = []struct {
	err  error
	code int
}{
	{widget.ErrEmptyDraft, http.StatusBadRequest},
	{widget.ErrSuggestionsHidden, http.StatusBadRequest},
	{widget.ErrNotOpen, http.StatusConflict},
	{widget.ErrSendInFlight, http.StatusConflict},
	{widget.ErrUnmounted, http.StatusGone},
	{service.ErrWidgetNotFound, http.StatusNotFound},

	{service.ErrTicketNotFound, http.StatusNotFound},
	{service.ErrInvalidTransition, http.StatusConflict},
	{service.ErrNotConfirmed, http.StatusPreconditionRequired},
	{service.ErrForbidden, http.StatusForbidden},

	{service.ErrInvalidProfile, http.StatusBadRequest},
	{service.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
	{service.ErrPictureTooLarge, http.StatusRequestEntityTooLarge},
	{service.ErrUploadInProgress, http.StatusConflict},
}

func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.code
		}
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
			return se.Code
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.WithFields(logger.Fields{"path": c.FullPath(), "status": code}).WithError(err).Error("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
