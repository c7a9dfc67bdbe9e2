package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PauseReconciler handles POST /api/reconciler/pause.
func (h *Handler) PauseReconciler(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

// ResumeReconciler handles POST /api/reconciler/resume.
func (h *Handler) ResumeReconciler(c *gin.Context) {
	h.scheduler.Start(h.appCtx)
	c.JSON(http.StatusOK, gin.H{"running": h.scheduler.Running()})
}

// RefreshNow handles POST /api/reconciler/refresh, an explicit refresh
// request outside the periodic tick.
func (h *Handler) RefreshNow(c *gin.Context) {
	h.reconciler.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "refresh complete"})
}
