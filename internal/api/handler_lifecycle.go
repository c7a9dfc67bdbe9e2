package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-floor-backend/internal/lifecycle"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/remote"
)

// abortLifecycleError maps controller errors onto HTTP responses. Invalid
// transitions are client errors; unresolved drift points the caller at the
// diagnostics endpoint; everything else is a remote store problem.
func abortLifecycleError(c *gin.Context, err error) {
	var incErr *lifecycle.InconsistencyError
	var apiErr *remote.APIError
	switch {
	case errors.Is(err, lifecycle.ErrUnknownTable):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrAlreadyOccupied),
		errors.Is(err, lifecycle.ErrNotOccupied),
		errors.Is(err, lifecycle.ErrDestinationOccupied),
		errors.Is(err, lifecycle.ErrKindMismatch):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &incErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      incErr.Error(),
			"reason":     string(incErr.Reason),
			"diagnostic": "/api/tables/" + incErr.Label + "/diagnose",
		})
	case errors.As(err, &apiErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

type startRequest struct {
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name" binding:"required"`
}

// StartTable handles POST /api/tables/:label/start.
func (h *Handler) StartTable(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.ctrl.Start(c.Request.Context(), c.Param("label"), req.ServerID, req.ServerName)
	if err != nil {
		abortLifecycleError(c, err)
		return
	}
	body := gin.H{"sessionId": res.SessionID, "billingId": res.BillingID}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

// StopTable handles POST /api/tables/:label/stop.
func (h *Handler) StopTable(c *gin.Context) {
	res, err := h.ctrl.Stop(c.Request.Context(), c.Param("label"))
	if err != nil {
		abortLifecycleError(c, err)
		return
	}
	body := gin.H{"billSummary": res.BillSummary}
	if res.Message != "" {
		body["message"] = res.Message
	}
	c.JSON(http.StatusOK, body)
}

type moveRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// MoveTable handles POST /api/tables/move.
func (h *Handler) MoveTable(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.ctrl.Move(c.Request.Context(), req.From, req.To); err != nil {
		abortLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session moved"})
}

type assignRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

// AssignTable handles POST /api/tables/assign, the kind-constrained move.
func (h *Handler) AssignTable(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	kind := model.TableKind(req.Kind)
	if kind != model.KindTimed && kind != model.KindFlat {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "kind must be 'timed' or 'flat'"})
		return
	}
	if err := h.ctrl.AssignBetweenKinds(c.Request.Context(), req.From, req.To, kind); err != nil {
		abortLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session reassigned"})
}
