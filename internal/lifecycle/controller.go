// Package lifecycle orchestrates session start, stop, move and reassign
// operations against the remote session store, with a consistency check
// and automatic repair guarding every critical operation.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pos-floor-backend/internal/cache"
	"pos-floor-backend/internal/journal"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/registry"
	"pos-floor-backend/internal/remote"
)

// Refresher re-pulls local state from the remote store after operations
// that touch more than one table.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Controller drives the per-table state machine (available <-> occupied).
// Operations are serialized by an internal mutex so no two lifecycle
// writers interleave; the reconciler tick may still run between remote
// calls, which is safe because the remote store always wins on refresh.
type Controller struct {
	reg       *registry.Registry
	client    remote.Client
	timers    *cache.TimerCache
	journal   journal.Recorder
	refresher Refresher

	mu sync.Mutex
}

// New creates a controller. journal may be nil; refresher may be nil in
// tests that assert on intermediate state.
func New(reg *registry.Registry, client remote.Client, timers *cache.TimerCache, rec journal.Recorder, refresher Refresher) *Controller {
	return &Controller{
		reg:       reg,
		client:    client,
		timers:    timers,
		journal:   rec,
		refresher: refresher,
	}
}

// StartResult reports a successful start. Warning is non-empty when the
// post-start verification could not confirm the session remotely; the
// table stays occupied and a later reconciliation will settle it.
type StartResult struct {
	SessionID string
	BillingID string
	Warning   string
}

// Start opens a session on an available table.
func (c *Controller) Start(ctx context.Context, label, serverID, serverName string) (StartResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local, ok := c.reg.Get(label)
	if !ok {
		return StartResult{}, ErrUnknownTable
	}
	if local.Occupied {
		return StartResult{}, ErrAlreadyOccupied
	}

	if err := c.ensureConsistent(ctx, label); err != nil {
		return StartResult{}, err
	}
	// Repair may have adopted a remote session, making the table occupied.
	if local, ok = c.reg.Get(label); !ok || local.Occupied {
		return StartResult{}, ErrAlreadyOccupied
	}

	res, err := c.client.StartSession(ctx, label, serverID, serverName)
	if err != nil {
		return StartResult{}, fmt.Errorf("failed to start session on %q: %w", label, err)
	}

	start := time.Now().UTC()
	c.timers.Set(label, start)
	c.reg.Update(label, func(rec *model.TableRecord) {
		rec.Occupied = true
		rec.SessionID = &res.SessionID
		rec.BillingID = &res.BillingID
		rec.StartTime = &start
		name := serverName
		rec.ServerName = &name
	})
	journal.Log(ctx, c.journal, model.SessionEvent{
		TableLabel: label,
		Event:      journal.EventStarted,
		SessionID:  res.SessionID,
		ServerName: serverName,
	})

	result := StartResult{SessionID: res.SessionID, BillingID: res.BillingID}

	// Post-condition check: the session should now be visible remotely.
	// A failed verification is surfaced, never rolled back.
	sess, err := c.client.GetActiveSession(ctx, label)
	if err != nil {
		result.Warning = fmt.Sprintf("session started but could not be verified remotely: %v", err)
	} else if sess == nil {
		result.Warning = "session started but the store does not report it as active yet; reconciliation will settle it"
	}
	if result.Warning != "" {
		log.Printf("lifecycle: %s", result.Warning)
	}
	return result, nil
}

// StopResult reports a successful stop.
type StopResult struct {
	BillSummary string
	Message     string
}

// Stop closes the session on an occupied table.
func (c *Controller) Stop(ctx context.Context, label string) (StopResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local, ok := c.reg.Get(label)
	if !ok {
		return StopResult{}, ErrUnknownTable
	}
	if !local.Occupied {
		return StopResult{}, ErrNotOccupied
	}

	if err := c.ensureConsistent(ctx, label); err != nil {
		return StopResult{}, err
	}
	// Repair may have released the table, which is the state Stop wanted.
	if local, ok = c.reg.Get(label); !ok || !local.Occupied {
		return StopResult{Message: "table was released during repair; no session to stop"}, nil
	}

	// Still-open orders are closed best effort; a failure here must not
	// block the stop.
	if err := c.client.CloseOrders(ctx, label); err != nil {
		log.Printf("lifecycle: failed to close open orders for %q: %v (continuing with stop)", label, err)
	}

	res, err := c.client.StopSession(ctx, label)
	if err != nil {
		return StopResult{}, fmt.Errorf("failed to stop session on %q: %w", label, err)
	}

	sessionID := ""
	if local.SessionID != nil {
		sessionID = *local.SessionID
	}
	c.timers.Remove(label)
	c.reg.Update(label, func(rec *model.TableRecord) {
		rec.ClearSession()
	})
	journal.Log(ctx, c.journal, model.SessionEvent{
		TableLabel: label,
		Event:      journal.EventStopped,
		SessionID:  sessionID,
		Detail:     res.BillSummary,
	})
	return StopResult{BillSummary: res.BillSummary, Message: res.Message}, nil
}

// Move relocates an active session and its line items to another table as
// a single remote operation, then refreshes both local records.
func (c *Controller) Move(ctx context.Context, fromLabel, toLabel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.move(ctx, fromLabel, toLabel)
}

func (c *Controller) move(ctx context.Context, fromLabel, toLabel string) error {
	from, ok := c.reg.Get(fromLabel)
	if !ok {
		return ErrUnknownTable
	}
	to, ok := c.reg.Get(toLabel)
	if !ok {
		return ErrUnknownTable
	}
	if !from.Occupied {
		return ErrNotOccupied
	}
	if to.Occupied {
		return ErrDestinationOccupied
	}

	if err := c.client.MoveSession(ctx, fromLabel, toLabel); err != nil {
		return fmt.Errorf("failed to move session from %q to %q: %w", fromLabel, toLabel, err)
	}

	// Carry the cached start time with the session.
	if from.StartTime != nil {
		c.timers.Set(toLabel, *from.StartTime)
	}
	c.timers.Remove(fromLabel)

	sessionID := ""
	if from.SessionID != nil {
		sessionID = *from.SessionID
	}
	journal.Log(ctx, c.journal, model.SessionEvent{
		TableLabel: fromLabel,
		Event:      journal.EventMoved,
		SessionID:  sessionID,
		Detail:     fmt.Sprintf("moved to %s", to.Label),
	})

	if c.refresher != nil {
		c.refresher.Refresh(ctx)
	}
	return nil
}

// AvailableByKind lists the labels of available tables of one kind, the
// candidate destinations for a kind-constrained reassign.
func (c *Controller) AvailableByKind(kind model.TableKind) []string {
	var labels []string
	for _, rec := range c.reg.GetAll() {
		if rec.Kind == kind && !rec.Occupied {
			labels = append(labels, rec.Label)
		}
	}
	return labels
}

// AssignBetweenKinds is a constrained Move: the destination must be an
// available table of the requested kind.
func (c *Controller) AssignBetweenKinds(ctx context.Context, fromLabel, toLabel string, kind model.TableKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	to, ok := c.reg.Get(toLabel)
	if !ok {
		return ErrUnknownTable
	}
	if to.Kind != kind {
		return ErrKindMismatch
	}
	return c.move(ctx, fromLabel, toLabel)
}
