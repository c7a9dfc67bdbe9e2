package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pos-floor-backend/internal/model"
)

// tableResponse is the floor-plan view of one table.
type tableResponse struct {
	model.TableRecord
	ElapsedMinutes int  `json:"elapsedMinutes"`
	Alert          bool `json:"alert"`
}

func toResponse(rec model.TableRecord, now time.Time) tableResponse {
	return tableResponse{
		TableRecord:    rec,
		ElapsedMinutes: rec.ElapsedMinutes(now),
		Alert:          rec.InAlert(now),
	}
}

// GetTables handles GET /api/tables.
func (h *Handler) GetTables(c *gin.Context) {
	now := time.Now().UTC()
	records := h.reg.GetAll()
	response := make([]tableResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, toResponse(rec, now))
	}
	c.JSON(http.StatusOK, response)
}

// GetTable handles GET /api/tables/:label.
func (h *Handler) GetTable(c *gin.Context) {
	rec, ok := h.reg.Get(c.Param("label"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown table label"})
		return
	}
	c.JSON(http.StatusOK, toResponse(rec, time.Now().UTC()))
}

// GetCandidates handles GET /api/tables/candidates?kind=timed|flat.
func (h *Handler) GetCandidates(c *gin.Context) {
	kind := model.TableKind(c.Query("kind"))
	if kind != model.KindTimed && kind != model.KindFlat {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "kind must be 'timed' or 'flat'"})
		return
	}
	labels := h.ctrl.AvailableByKind(kind)
	if labels == nil {
		labels = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "candidates": labels})
}

// GetTableHistory handles GET /api/tables/:label/history.
func (h *Handler) GetTableHistory(c *gin.Context) {
	rec, ok := h.reg.Get(c.Param("label"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown table label"})
		return
	}
	events, err := h.journal.ForTable(c.Request.Context(), rec.Label, 50)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session history"})
		return
	}
	c.JSON(http.StatusOK, events)
}
