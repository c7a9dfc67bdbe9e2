package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pos-floor-backend/config"
	"pos-floor-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	// The floor view cache must expire well within a reconciler interval.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 10*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/tables", caching, handler.GetTables)
		api.GET("/tables/candidates", handler.GetCandidates)
		api.GET("/tables/:label", handler.GetTable)
		api.GET("/tables/:label/diagnose", handler.DiagnoseTable)
		api.GET("/tables/:label/history", handler.GetTableHistory)

		api.POST("/tables/:label/start", handler.StartTable)
		api.POST("/tables/:label/stop", handler.StopTable)
		api.POST("/tables/move", handler.MoveTable)
		api.POST("/tables/assign", handler.AssignTable)

		api.PUT("/tables/:label/threshold", handler.PutThreshold)
		api.DELETE("/tables/:label/threshold", handler.DeleteThreshold)

		api.POST("/reconciler/pause", handler.PauseReconciler)
		api.POST("/reconciler/resume", handler.ResumeReconciler)
		api.POST("/reconciler/refresh", handler.RefreshNow)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
