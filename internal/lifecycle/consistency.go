package lifecycle

import (
	"context"
	"fmt"
	"time"

	"pos-floor-backend/internal/journal"
	"pos-floor-backend/internal/model"
)

// Inconsistency names a detectable drift between local and remote truth.
type Inconsistency string

const (
	OccupiedWithoutSession Inconsistency = "occupied without session"
	SessionWithoutOccupied Inconsistency = "session without occupied flag"
)

// Classify compares a local record with the remote active-session lookup.
// The second return is false when the two agree.
func Classify(local model.TableRecord, sess *model.ActiveSession) (Inconsistency, bool) {
	if local.Occupied && sess == nil {
		return OccupiedWithoutSession, true
	}
	if !local.Occupied && sess != nil {
		return SessionWithoutOccupied, true
	}
	return "", false
}

// CheckConsistency fetches both sides for one label and classifies them.
// The error return is reserved for remote failures; a detected drift is
// reported through the first two returns.
func (c *Controller) CheckConsistency(ctx context.Context, label string) (Inconsistency, bool, error) {
	local, ok := c.reg.Get(label)
	if !ok {
		return "", false, ErrUnknownTable
	}
	sess, err := c.client.GetActiveSession(ctx, label)
	if err != nil {
		return "", false, fmt.Errorf("consistency check for %q failed: %w", label, err)
	}
	reason, drifted := Classify(local, sess)
	return reason, drifted, nil
}

// Repair resolves a drift into one of the two canonical states: occupied
// with a matching remote session, or available with no session. It never
// leaves a table in a third state.
func (c *Controller) Repair(ctx context.Context, label string) error {
	local, ok := c.reg.Get(label)
	if !ok {
		return ErrUnknownTable
	}
	sess, err := c.client.GetActiveSession(ctx, label)
	if err != nil {
		return fmt.Errorf("repair of %q aborted, session lookup failed: %w", label, err)
	}

	reason, drifted := Classify(local, sess)
	if !drifted {
		return nil
	}

	switch reason {
	case OccupiedWithoutSession:
		return c.repairOccupiedWithoutSession(ctx, local)
	case SessionWithoutOccupied:
		c.repairSessionWithoutOccupied(ctx, local.Label, sess)
		return nil
	}
	return nil
}

// repairOccupiedWithoutSession first tries to recreate the session under
// the last-known server identity. If recreation fails for any reason the
// table is forced to available, so it never stays stuck occupied.
func (c *Controller) repairOccupiedWithoutSession(ctx context.Context, local model.TableRecord) error {
	serverName := ""
	if local.ServerName != nil {
		serverName = *local.ServerName
	}

	res, err := c.client.StartSession(ctx, local.Label, "", serverName)
	if err != nil {
		c.reg.Update(local.Label, func(rec *model.TableRecord) {
			rec.ClearSession()
		})
		c.timers.Remove(local.Label)
		journal.Log(ctx, c.journal, model.SessionEvent{
			TableLabel: local.Label,
			Event:      journal.EventRepairedAvailable,
			ServerName: serverName,
			Detail:     fmt.Sprintf("session recreation failed: %v", err),
		})
		return nil
	}

	start := time.Now().UTC()
	if local.StartTime != nil {
		start = *local.StartTime
	}
	c.reg.Update(local.Label, func(rec *model.TableRecord) {
		rec.Occupied = true
		rec.SessionID = &res.SessionID
		rec.BillingID = &res.BillingID
		rec.StartTime = &start
	})
	c.timers.Set(local.Label, start)
	journal.Log(ctx, c.journal, model.SessionEvent{
		TableLabel: local.Label,
		Event:      journal.EventRepairedOccupied,
		SessionID:  res.SessionID,
		ServerName: serverName,
		Detail:     "session recreated",
	})
	return nil
}

// repairSessionWithoutOccupied trusts the remote session as authoritative
// and flips the local record to occupied. Remote wins all tie-breaks.
func (c *Controller) repairSessionWithoutOccupied(ctx context.Context, label string, sess *model.ActiveSession) {
	c.reg.Update(label, func(rec *model.TableRecord) {
		rec.Occupied = true
		sessionID := sess.SessionID
		billingID := sess.BillingID
		rec.SessionID = &sessionID
		rec.BillingID = &billingID
		rec.StartTime = sess.StartTime
	})
	if sess.StartTime != nil {
		c.timers.Set(label, *sess.StartTime)
	}
	journal.Log(ctx, c.journal, model.SessionEvent{
		TableLabel: label,
		Event:      journal.EventRepairedOccupied,
		SessionID:  sess.SessionID,
		Detail:     "adopted remote session",
	})
}

// ensureConsistent runs the check-repair-recheck sequence that guards
// Start and Stop. At most one repair attempt is made.
func (c *Controller) ensureConsistent(ctx context.Context, label string) error {
	reason, drifted, err := c.CheckConsistency(ctx, label)
	if err != nil {
		return err
	}
	if !drifted {
		return nil
	}
	if err := c.Repair(ctx, label); err != nil {
		return &InconsistencyError{Label: label, Reason: reason, Err: err}
	}
	_, stillDrifted, err := c.CheckConsistency(ctx, label)
	if err != nil {
		return err
	}
	if stillDrifted {
		return &InconsistencyError{Label: label, Reason: reason}
	}
	return nil
}
