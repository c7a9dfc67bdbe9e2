package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-floor-backend/internal/lifecycle"
)

// DiagnoseTable handles GET /api/tables/:label/diagnose, returning the
// plain-text drift report.
func (h *Handler) DiagnoseTable(c *gin.Context) {
	report, err := h.reporter.Diagnose(c.Request.Context(), c.Param("label"))
	if err != nil {
		if errors.Is(err, lifecycle.ErrUnknownTable) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown table label"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, report)
}
