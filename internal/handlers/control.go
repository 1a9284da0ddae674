package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusStarted = "started"
	statusStopped = "stopped"

	errNoStatus = "no status received from the controller yet"
	errNoConfig = "no configuration received from the controller yet"
)

// respondWithStatus answers a command with the current status, if known.
func (h *Handler) respondWithStatus(c *gin.Context, status string) {
	resp := gin.H{"status": status}
	if h.services.Monitoring != nil {
		if view, ok := h.services.Monitoring.Status(); ok {
			resp["controller"] = view
		}
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start the controller
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, controller"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/start [post]
// @Security     BearerAuth
func (h *Handler) startController(c *gin.Context) {
	if err := h.services.Control.Start(c.Request.Context()); err != nil {
		h.writeError(c, "controller_start_failed", err)
		return
	}
	h.respondWithStatus(c, statusStarted)
}

// @Summary      Stop the controller
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, controller"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/stop [post]
// @Security     BearerAuth
func (h *Handler) stopController(c *gin.Context) {
	if err := h.services.Control.Stop(c.Request.Context()); err != nil {
		h.writeError(c, "controller_stop_failed", err)
		return
	}
	h.respondWithStatus(c, statusStopped)
}
