package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smokemate/internal/models"
)

const maxConfigBody = 64 << 10

// @Summary      Controller status (wire form)
// @Description  Last known status; isConnected is false when the latest poll failed.
// @Tags         relay
// @Produce      json
// @Success      200  {object}  models.DeviceStatus
// @Router       /status [get]
func (h *Handler) wireStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.WireStatus())
}

// @Summary      Controller configuration (wire form)
// @Tags         relay
// @Produce      json
// @Success      200  {object}  models.WireConfig
// @Failure      503  {object}  map[string]string
// @Router       /config [get]
func (h *Handler) wireConfig(c *gin.Context) {
	cfg, ok := h.services.Monitoring.Config()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoConfig})
		return
	}
	c.JSON(http.StatusOK, models.ToWirePayload(cfg))
}

// @Summary      Samples of the current run
// @Description  Recorded since the last not-running to running transition, thinned to 1800 samples. Empty before the first run.
// @Tags         relay
// @Produce      json
// @Success      200  {array}   models.DeviceStatus
// @Failure      500  {object}  map[string]string
// @Router       /run-status-history [get]
func (h *Handler) wireRunHistory(c *gin.Context) {
	hist, err := h.services.Recorder.RunHistory(c.Request.Context())
	if err != nil {
		h.writeError(c, "run_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// @Summary      Start the controller
// @Tags         relay
// @Success      200
// @Failure      502  {object}  map[string]string
// @Router       /start [post]
func (h *Handler) wireStart(c *gin.Context) {
	if err := h.services.Control.Start(c.Request.Context()); err != nil {
		h.writeError(c, "controller_start_failed", err)
		return
	}
	c.Status(http.StatusOK)
}

// @Summary      Stop the controller
// @Tags         relay
// @Success      200
// @Failure      502  {object}  map[string]string
// @Router       /stop [post]
func (h *Handler) wireStop(c *gin.Context) {
	if err := h.services.Control.Stop(c.Request.Context()); err != nil {
		h.writeError(c, "controller_stop_failed", err)
		return
	}
	c.Status(http.StatusOK)
}

// @Summary      Replace the controller configuration
// @Description  Full replacement; the body is validated before it is forwarded.
// @Tags         relay
// @Accept       json
// @Param        body  body  models.WireConfig  true  "Configuration"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /config [post]
func (h *Handler) wireSetConfig(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConfigBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.ConfigForwarder.SetConfig(c.Request.Context(), raw); err != nil {
		h.writeError(c, "controller_config_failed", err)
		return
	}
	c.Status(http.StatusOK)
}
