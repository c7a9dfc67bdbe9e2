// Package diagnose produces read-only drift reports for a single table,
// comparing the local record with everything the remote store knows.
package diagnose

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pos-floor-backend/internal/lifecycle"
	"pos-floor-backend/internal/model"
	"pos-floor-backend/internal/registry"
	"pos-floor-backend/internal/remote"
)

// Reporter gathers local and remote state without mutating either.
type Reporter struct {
	reg    *registry.Registry
	client remote.Client
}

// New creates a reporter.
func New(reg *registry.Registry, client remote.Client) *Reporter {
	return &Reporter{reg: reg, client: client}
}

// Diagnose renders a deterministic, ordered text report for one table.
// Remote fetch failures are embedded in the report rather than returned;
// the only error is an unknown local label.
func (r *Reporter) Diagnose(ctx context.Context, label string) (string, error) {
	local, ok := r.reg.Get(label)
	if !ok {
		return "", lifecycle.ErrUnknownTable
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Diagnostics for table %q ===\n", local.Label)

	b.WriteString("\n[Local record]\n")
	writeRecord(&b, local)

	b.WriteString("\n[Remote table record]\n")
	remoteTables, err := r.client.ListTables(ctx)
	if err != nil {
		fmt.Fprintf(&b, "  unavailable: %v\n", err)
	} else {
		found := false
		for _, rt := range remoteTables {
			if model.LabelKey(rt.Label) == model.LabelKey(label) {
				writeRecord(&b, rt)
				found = true
				break
			}
		}
		if !found {
			b.WriteString("  not present in remote store\n")
		}
	}

	b.WriteString("\n[Remote active session]\n")
	sess, sessErr := r.client.GetActiveSession(ctx, label)
	switch {
	case sessErr != nil:
		fmt.Fprintf(&b, "  unavailable: %v\n", sessErr)
	case sess == nil:
		b.WriteString("  none\n")
	default:
		fmt.Fprintf(&b, "  sessionId=%s billingId=%s startTime=%s\n",
			sess.SessionID, sess.BillingID, formatTime(sess.StartTime))
	}

	b.WriteString("\n[All active sessions]\n")
	sessions, err := r.client.ListActiveSessions(ctx)
	if err != nil {
		fmt.Fprintf(&b, "  unavailable: %v\n", err)
	} else if len(sessions) == 0 {
		b.WriteString("  none\n")
	} else {
		sort.Slice(sessions, func(i, j int) bool { return sessions[i].Label < sessions[j].Label })
		for _, s := range sessions {
			fmt.Fprintf(&b, "  %s: sessionId=%s startTime=%s\n",
				s.Label, s.SessionID, formatTime(s.StartTime))
		}
	}

	b.WriteString("\n[Open items]\n")
	items, err := r.client.GetSessionItems(ctx, label)
	if err != nil {
		fmt.Fprintf(&b, "  unavailable: %v\n", err)
	} else if len(items) == 0 {
		b.WriteString("  none\n")
	} else {
		for _, item := range items {
			fmt.Fprintf(&b, "  %s x%d @ %.2f\n", item.Name, item.Quantity, item.Price)
		}
	}

	b.WriteString("\n[Assessment]\n")
	if sessErr != nil {
		b.WriteString("  inconclusive: remote session lookup failed\n")
	} else if reason, drifted := lifecycle.Classify(local, sess); drifted {
		fmt.Fprintf(&b, "  inconsistent: %s\n", reason)
		b.WriteString("  recommendation: " + recommendation(reason) + "\n")
	} else {
		b.WriteString("  consistent\n")
		b.WriteString("  recommendation: none\n")
	}

	return b.String(), nil
}

func writeRecord(b *strings.Builder, rec model.TableRecord) {
	fmt.Fprintf(b, "  label=%s kind=%s occupied=%t\n", rec.Label, rec.Kind, rec.Occupied)
	fmt.Fprintf(b, "  sessionId=%s billingId=%s\n", orNone(rec.SessionID), orNone(rec.BillingID))
	fmt.Fprintf(b, "  startTime=%s server=%s threshold=%s\n",
		formatTime(rec.StartTime), orNone(rec.ServerName), formatThreshold(rec.ThresholdMinutes))
}

func recommendation(reason lifecycle.Inconsistency) string {
	switch reason {
	case lifecycle.OccupiedWithoutSession:
		return "run repair to recreate the session or release the table"
	case lifecycle.SessionWithoutOccupied:
		return "run repair to adopt the remote session locally"
	}
	return "run repair"
}

func orNone(s *string) string {
	if s == nil || *s == "" {
		return "<none>"
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "<none>"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatThreshold(m *int) string {
	if m == nil {
		return "<none>"
	}
	return fmt.Sprintf("%dm", *m)
}
