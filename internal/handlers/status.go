package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smokemate/internal/models"
)

// @Summary      Current status
// @Description  Last applied status sample with derived presentation values. 503 until the first poll succeeds.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  service.StatusView
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	view, ok := h.services.Monitoring.Status()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoStatus})
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Cached configuration
// @Description  Last configuration read from (or accepted by) the controller, in wire form without the Wi-Fi password.
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  models.WireConfig
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/config [get]
// @Security     BearerAuth
func (h *Handler) getConfig(c *gin.Context) {
	cfg, ok := h.services.Monitoring.Config()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoConfig})
		return
	}
	c.JSON(http.StatusOK, models.ToWirePayload(cfg))
}

// @Summary      Run history
// @Description  Samples of the current run, oldest first. limit keeps the newest n.
// @Tags         monitoring
// @Produce      json
// @Param        limit  query  int  false  "Keep the newest n samples"
// @Success      200  {object}  map[string]interface{}  "count, samples"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	hist, _ := h.services.Monitoring.History()
	hist = hist.Window(limit)
	if hist == nil {
		hist = models.History{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   hist.Len(),
		"samples": hist,
	})
}

// @Summary      Poll statistics
// @Description  Per-resource bookkeeping: last update, sequence numbers, failures.
// @Tags         monitoring
// @Produce      json
// @Success      200  {array}   poller.ResourceStats
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/poll-stats [get]
// @Security     BearerAuth
func (h *Handler) getPollStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.PollStats())
}
