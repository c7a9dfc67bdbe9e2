package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func minutesAgo(now time.Time, m int) *time.Time {
	t := now.Add(-time.Duration(m) * time.Minute)
	return &t
}

func intPtr(v int) *int { return &v }

func TestTableRecord_InAlert(t *testing.T) {
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		record   TableRecord
		expected bool
	}{
		{
			name: "below threshold is normal",
			record: TableRecord{
				Label: "Billiard 1", Kind: KindTimed, Occupied: true,
				StartTime: minutesAgo(now, 29), ThresholdMinutes: intPtr(30),
			},
			expected: false,
		},
		{
			name: "at threshold alerts (inclusive boundary)",
			record: TableRecord{
				Label: "Billiard 1", Kind: KindTimed, Occupied: true,
				StartTime: minutesAgo(now, 30), ThresholdMinutes: intPtr(30),
			},
			expected: true,
		},
		{
			name: "past threshold alerts",
			record: TableRecord{
				Label: "Billiard 1", Kind: KindTimed, Occupied: true,
				StartTime: minutesAgo(now, 45), ThresholdMinutes: intPtr(30),
			},
			expected: true,
		},
		{
			name: "flat table never alerts",
			record: TableRecord{
				Label: "Bar 1", Kind: KindFlat, Occupied: true,
				StartTime: minutesAgo(now, 120), ThresholdMinutes: intPtr(30),
			},
			expected: false,
		},
		{
			name: "no threshold configured",
			record: TableRecord{
				Label: "Billiard 2", Kind: KindTimed, Occupied: true,
				StartTime: minutesAgo(now, 120),
			},
			expected: false,
		},
		{
			name: "not occupied",
			record: TableRecord{
				Label: "Billiard 3", Kind: KindTimed,
				StartTime: minutesAgo(now, 120), ThresholdMinutes: intPtr(30),
			},
			expected: false,
		},
		{
			name: "no start time",
			record: TableRecord{
				Label: "Billiard 4", Kind: KindTimed, Occupied: true,
				ThresholdMinutes: intPtr(30),
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.InAlert(now))
		})
	}
}

func TestTableRecord_ElapsedMinutes(t *testing.T) {
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	rec := TableRecord{Label: "Billiard 1", Kind: KindTimed, Occupied: true, StartTime: minutesAgo(now, 90)}
	assert.Equal(t, 90, rec.ElapsedMinutes(now))

	// Partial minutes floor down.
	start := now.Add(-90*time.Minute - 59*time.Second)
	rec.StartTime = &start
	assert.Equal(t, 90, rec.ElapsedMinutes(now))

	// A start time in the future clamps to zero.
	future := now.Add(5 * time.Minute)
	rec.StartTime = &future
	assert.Equal(t, 0, rec.ElapsedMinutes(now))

	rec.StartTime = nil
	assert.Equal(t, 0, rec.ElapsedMinutes(now))
}

func TestTableRecord_ClearSession(t *testing.T) {
	now := time.Now().UTC()
	sid, bid, srv := "s-1", "b-1", "alice"
	rec := TableRecord{
		Label: "Bar 3", Kind: KindTimed, Occupied: true,
		SessionID: &sid, BillingID: &bid, StartTime: &now,
		ServerName: &srv, ThresholdMinutes: intPtr(30),
	}

	rec.ClearSession()

	assert.False(t, rec.Occupied)
	assert.Nil(t, rec.SessionID)
	assert.Nil(t, rec.BillingID)
	assert.Nil(t, rec.StartTime)
	assert.Nil(t, rec.ServerName)
	// Threshold is local configuration and survives the session.
	assert.NotNil(t, rec.ThresholdMinutes)
	assert.Equal(t, "Bar 3", rec.Label)
}

func TestLabelKey(t *testing.T) {
	assert.Equal(t, LabelKey("Bar 3"), LabelKey("bar 3"))
	assert.Equal(t, LabelKey("Bar 3"), LabelKey("  BAR 3  "))
	assert.NotEqual(t, LabelKey("Bar 3"), LabelKey("Bar 4"))
}
