// Package reconcile keeps the local table registry converged with the
// authoritative session store, falling back to the local caches when the
// store cannot supply a start time.
package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"pos-floor-backend/internal/cache"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/registry"
	"pos-floor-backend/internal/remote"
)

// Notifier receives the label of a table that just entered the alert state.
type Notifier interface {
	Dispatch(label string)
}

// Reconciler refreshes the registry from the remote store. Refresh is
// idempotent: with no intervening remote change, two runs produce
// identical registry contents.
type Reconciler struct {
	reg        *registry.Registry
	client     remote.Client
	timers     *cache.TimerCache
	thresholds *cache.ThresholdCache
	notifier   Notifier

	mu      sync.Mutex
	alerted map[string]bool // edge tracking so a table alerts once per episode

	now func() time.Time
}

// New creates a reconciler. notifier may be nil when alert pushes are
// disabled.
func New(reg *registry.Registry, client remote.Client, timers *cache.TimerCache, thresholds *cache.ThresholdCache, notifier Notifier) *Reconciler {
	return &Reconciler{
		reg:        reg,
		client:     client,
		timers:     timers,
		thresholds: thresholds,
		notifier:   notifier,
		alerted:    make(map[string]bool),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Refresh performs one reconciliation pass. Remote failures are logged and
// swallowed per step; a failed secondary recovery never undoes the overwrite
// steps already applied.
func (r *Reconciler) Refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remoteByLabel := make(map[string]model.TableRecord)
	remoteTables, err := r.client.ListTables(ctx)
	if err != nil {
		log.Printf("reconcile: table fetch failed: %v (keeping local occupancy state)", err)
	} else {
		for _, rt := range remoteTables {
			remoteByLabel[model.LabelKey(rt.Label)] = rt
		}
	}

	timers := r.timers.Load()
	thresholds := r.thresholds.Load()

	var needRecovery []string
	for _, local := range r.reg.GetAll() {
		key := model.LabelKey(local.Label)

		// The remote store is authoritative for everything session-scoped.
		if rt, ok := remoteByLabel[key]; ok {
			local.Occupied = rt.Occupied
			local.SessionID = rt.SessionID
			local.BillingID = rt.BillingID
			local.StartTime = rt.StartTime
			local.ServerName = rt.ServerName
			local.Kind = rt.Kind
		}

		// Timer cache fills in a start time the remote store lost.
		if local.Occupied && local.StartTime == nil {
			if ts, ok := timers[key]; ok {
				start := ts
				local.StartTime = &start
			}
		}

		// Thresholds are local-only and never come from the remote store.
		if minutes, ok := thresholds[key]; ok {
			m := minutes
			local.ThresholdMinutes = &m
		} else {
			local.ThresholdMinutes = nil
		}

		if local.Kind == model.KindTimed && local.Occupied && local.StartTime == nil {
			needRecovery = append(needRecovery, local.Label)
		}

		r.reg.Upsert(local)
	}

	if len(needRecovery) > 0 {
		r.recoverStartTimes(ctx, needRecovery)
	}

	r.evaluateAlerts(r.now())
}

// recoverStartTimes is the secondary recovery pass: occupied timed tables
// with no start time after the overwrite and cache steps get one more
// chance via the active session listing.
func (r *Reconciler) recoverStartTimes(ctx context.Context, labels []string) {
	sessions, err := r.client.ListActiveSessions(ctx)
	if err != nil {
		log.Printf("reconcile: secondary recovery fetch failed: %v", err)
		return
	}
	byLabel := make(map[string]model.ActiveSession, len(sessions))
	for _, s := range sessions {
		byLabel[model.LabelKey(s.Label)] = s
	}
	for _, label := range labels {
		sess, ok := byLabel[model.LabelKey(label)]
		if !ok || sess.StartTime == nil {
			continue
		}
		start := *sess.StartTime
		r.reg.Update(label, func(rec *model.TableRecord) {
			rec.StartTime = &start
		})
	}
}

// evaluateAlerts re-derives the alert view of the floor and dispatches a
// notification for every table that newly crossed its threshold.
func (r *Reconciler) evaluateAlerts(now time.Time) {
	for _, rec := range r.reg.GetAll() {
		key := model.LabelKey(rec.Label)
		inAlert := rec.InAlert(now)
		if inAlert && !r.alerted[key] && r.notifier != nil {
			r.notifier.Dispatch(rec.Label)
		}
		r.alerted[key] = inAlert
	}
}
