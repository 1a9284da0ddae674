package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// fieldValue is the body of a field edit. Value may be a number, a boolean or
// a string; it is coerced to the field's type.
type fieldValue struct {
	Value any `json:"value"`
}

type stepCount struct {
	Count *int `json:"count" binding:"required"`
}

func (h *Handler) respondWithSession(c *gin.Context, code int) {
	c.JSON(code, h.services.Editor.Snapshot())
}

// @Summary      Edit session
// @Description  Session state, the draft (password masked), dirty fields and current violations.
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.Snapshot
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/session [get]
// @Security     BearerAuth
func (h *Handler) getSession(c *gin.Context) {
	h.respondWithSession(c, http.StatusOK)
}

// @Summary      Open an edit session
// @Description  Copies the cached configuration into a draft. 409 when a session is already open or no configuration is known.
// @Tags         session
// @Produce      json
// @Success      201  {object}  session.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/session [post]
// @Security     BearerAuth
func (h *Handler) openSession(c *gin.Context) {
	if err := h.services.Editor.Open(); err != nil {
		h.writeError(c, "session_open_rejected", err)
		return
	}
	h.respondWithSession(c, http.StatusCreated)
}

// @Summary      Discard the edit session
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/session [delete]
// @Security     BearerAuth
func (h *Handler) discardSession(c *gin.Context) {
	if err := h.services.Editor.Discard(); err != nil {
		h.writeError(c, "session_discard_rejected", err)
		return
	}
	h.respondWithSession(c, http.StatusOK)
}

// @Summary      Set a draft field
// @Description  Accepts wire names and the aliases temperatureIntervalSeconds, forcedFanPercent, forcedDoorPercent, bangBangBandWidth.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        name  path      string      true  "Field name"
// @Param        body  body      fieldValue  true  "New value"
// @Success      200   {object}  session.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/session/fields/{name} [put]
// @Security     BearerAuth
func (h *Handler) setSessionField(c *gin.Context) {
	var body fieldValue
	if ok := h.bindJSONOrBadRequest(c, &body); !ok {
		return
	}
	name := c.Param("name")
	if err := h.services.Editor.SetField(name, body.Value); err != nil {
		h.writeError(c, "session_field_rejected", err, "field", name)
		return
	}
	h.respondWithSession(c, http.StatusOK)
}

// @Summary      Set a profile step field
// @Description  Fields: type, temperatureStart, temperatureEnd, timeMSec, durationMinutes.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        index  path      int         true  "Step index"
// @Param        field  path      string      true  "Step field"
// @Param        body   body      fieldValue  true  "New value"
// @Success      200    {object}  session.Snapshot
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      409    {object}  map[string]string
// @Router       /api/v1/session/steps/{index}/{field} [put]
// @Security     BearerAuth
func (h *Handler) setSessionStepField(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step index must be an integer"})
		return
	}
	var body fieldValue
	if ok := h.bindJSONOrBadRequest(c, &body); !ok {
		return
	}
	field := c.Param("field")
	if err := h.services.Editor.SetStepField(index, field, body.Value); err != nil {
		h.writeError(c, "session_step_rejected", err, "index", index, "field", field)
		return
	}
	h.respondWithSession(c, http.StatusOK)
}

// @Summary      Resize the profile
// @Description  Truncates or appends default steps.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      stepCount  true  "Step count"
// @Success      200   {object}  session.Snapshot
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/session/steps [put]
// @Security     BearerAuth
func (h *Handler) setSessionStepCount(c *gin.Context) {
	var body stepCount
	if ok := h.bindJSONOrBadRequest(c, &body); !ok {
		return
	}
	if err := h.services.Editor.SetStepCount(*body.Count); err != nil {
		h.writeError(c, "session_step_count_rejected", err, "count", *body.Count)
		return
	}
	h.respondWithSession(c, http.StatusOK)
}

// @Summary      Submit the draft
// @Description  Validates and sends the draft as a full replacement. 400 with violations when invalid, 502 when the controller rejects it.
// @Tags         session
// @Produce      json
// @Success      200  {object}  session.Snapshot
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/session/submit [post]
// @Security     BearerAuth
func (h *Handler) submitSession(c *gin.Context) {
	if err := h.services.Editor.Submit(c.Request.Context()); err != nil {
		h.writeError(c, "session_submit_rejected", err)
		return
	}
	h.respondWithSession(c, http.StatusOK)
}
