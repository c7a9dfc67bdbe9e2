package model

import (
	"strings"
	"time"
)

// TableKind distinguishes tables billed by elapsed time from flat-rate tables.
type TableKind string

const (
	KindTimed TableKind = "timed"
	KindFlat  TableKind = "flat"
)

// TableRecord is the local view of one physical table on the floor.
// Label is the unique identifier and never changes after creation.
type TableRecord struct {
	Label            string     `json:"label"`
	Kind             TableKind  `json:"kind"`
	Occupied         bool       `json:"occupied"`
	SessionID        *string    `json:"sessionId,omitempty"`
	BillingID        *string    `json:"billingId,omitempty"`
	StartTime        *time.Time `json:"startTime,omitempty"`
	ServerName       *string    `json:"serverName,omitempty"`
	ThresholdMinutes *int       `json:"thresholdMinutes,omitempty"`
}

// LabelKey normalizes a table label for case-insensitive matching.
func LabelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// ElapsedMinutes returns whole minutes since the session started, clamped to >= 0.
// Only meaningful for timed, occupied tables with a known start time; returns 0 otherwise.
func (t *TableRecord) ElapsedMinutes(now time.Time) int {
	if t.Kind != KindTimed || !t.Occupied || t.StartTime == nil {
		return 0
	}
	mins := int(now.Sub(*t.StartTime).Minutes())
	if mins < 0 {
		return 0
	}
	return mins
}

// InAlert reports whether the table has been occupied at or past its
// configured threshold. The boundary is inclusive: elapsed == threshold alerts.
func (t *TableRecord) InAlert(now time.Time) bool {
	if t.Kind != KindTimed || !t.Occupied || t.StartTime == nil || t.ThresholdMinutes == nil {
		return false
	}
	return t.ElapsedMinutes(now) >= *t.ThresholdMinutes
}

// ClearSession resets every session-scoped field, leaving label, kind and
// threshold untouched.
func (t *TableRecord) ClearSession() {
	t.Occupied = false
	t.SessionID = nil
	t.BillingID = nil
	t.StartTime = nil
	t.ServerName = nil
}

// ActiveSession is the remote store's record of an open occupancy period.
type ActiveSession struct {
	Label     string     `json:"label"`
	SessionID string     `json:"sessionId"`
	BillingID string     `json:"billingId"`
	StartTime *time.Time `json:"startTime,omitempty"`
}

// LineItem is a legacy session line item not tied to an order.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}
