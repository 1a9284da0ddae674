package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smokemate/internal/device"
	"smokemate/internal/models"
	"smokemate/internal/service"
	"smokemate/internal/session"
)

const errInvalidBodyPref = "invalid body: "

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var (
		validation *models.ValidationError
		parse      *models.ParseError
		field      *session.FieldError
		transport  *device.TransportError
		protocol   *device.ProtocolError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &parse), errors.As(err, &field),
		errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoConfig), errors.Is(err, session.ErrAlreadyOpen),
		errors.Is(err, session.ErrNotEditing), errors.Is(err, session.ErrSubmitting):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transport), errors.As(err, &protocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err under logKey and answers with the mapped status. A
// validation error carries its violations.
func (h *Handler) writeError(c *gin.Context, logKey string, err error, kv ...any) {
	code := statusFor(err)
	if h.log != nil {
		fields := append([]any{"err", err, "status", code}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}

	body := gin.H{"error": err.Error()}
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		body["violations"] = validation.Violations
	}
	c.JSON(code, body)
}
