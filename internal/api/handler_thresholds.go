package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-floor-backend/internal/model"
)

type thresholdRequest struct {
	Minutes int `json:"minutes" binding:"required,gt=0"`
}

// PutThreshold handles PUT /api/tables/:label/threshold. The threshold is
// local-only state; it persists across sessions until explicitly cleared.
func (h *Handler) PutThreshold(c *gin.Context) {
	rec, ok := h.reg.Get(c.Param("label"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown table label"})
		return
	}
	var req thresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "minutes must be a positive integer"})
		return
	}

	h.thresholds.Set(rec.Label, req.Minutes)
	minutes := req.Minutes
	h.reg.Update(rec.Label, func(r *model.TableRecord) {
		r.ThresholdMinutes = &minutes
	})
	c.JSON(http.StatusOK, gin.H{"label": rec.Label, "thresholdMinutes": minutes})
}

// DeleteThreshold handles DELETE /api/tables/:label/threshold.
func (h *Handler) DeleteThreshold(c *gin.Context) {
	rec, ok := h.reg.Get(c.Param("label"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown table label"})
		return
	}
	h.thresholds.Remove(rec.Label)
	h.reg.Update(rec.Label, func(r *model.TableRecord) {
		r.ThresholdMinutes = nil
	})
	c.Status(http.StatusNoContent)
}
