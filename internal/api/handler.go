package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"pos-floor-backend/internal/cache"
	"pos-floor-backend/internal/diagnose"
	"pos-floor-backend/internal/journal"
	"pos-floor-backend/internal/lifecycle"
	"pos-floor-backend/internal/reconcile"
	"pos-floor-backend/internal/registry"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	reg        *registry.Registry
	ctrl       *lifecycle.Controller
	reporter   *diagnose.Reporter
	reconciler *reconcile.Reconciler
	scheduler  *reconcile.Scheduler
	thresholds *cache.ThresholdCache
	journal    journal.Recorder
	db         *gorm.DB
	webpush    *webpush.Options

	// appCtx is the process lifetime context; resuming the scheduler
	// attaches the restarted task to it, not to the resume request.
	appCtx context.Context
}

// Deps bundles the collaborators the API surface exposes.
type Deps struct {
	Registry   *registry.Registry
	Controller *lifecycle.Controller
	Reporter   *diagnose.Reporter
	Reconciler *reconcile.Reconciler
	Scheduler  *reconcile.Scheduler
	Thresholds *cache.ThresholdCache
	Journal    journal.Recorder
	DB         *gorm.DB
	WebPush    *webpush.Options
	AppCtx     context.Context
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	ctx := d.AppCtx
	if ctx == nil {
		ctx = context.Background()
	}
	return &Handler{
		reg:        d.Registry,
		ctrl:       d.Controller,
		reporter:   d.Reporter,
		reconciler: d.Reconciler,
		scheduler:  d.Scheduler,
		thresholds: d.Thresholds,
		journal:    d.Journal,
		db:         d.DB,
		webpush:    d.WebPush,
		appCtx:     ctx,
	}
}
