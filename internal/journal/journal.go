// Package journal archives session lifecycle transitions for audit and
// diagnostics. Writes are best effort: a failed insert is logged and never
// blocks the lifecycle operation that produced it.
package journal

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"pos-floor-backend/internal/model"
)

// Event names recorded in the journal.
const (
	EventStarted           = "started"
	EventStopped           = "stopped"
	EventMoved             = "moved"
	EventRepairedOccupied  = "repaired_to_occupied"
	EventRepairedAvailable = "repaired_to_available"
)

// Recorder defines the interface for journal persistence.
type Recorder interface {
	Record(ctx context.Context, event model.SessionEvent) error
	ForTable(ctx context.Context, label string, limit int) ([]model.SessionEvent, error)
}

// gormJournal implements Recorder using GORM.
type gormJournal struct {
	db *gorm.DB
}

// NewGormJournal creates a new GORM-backed journal.
func NewGormJournal(db *gorm.DB) Recorder {
	return &gormJournal{db: db}
}

func (j *gormJournal) Record(ctx context.Context, event model.SessionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return j.db.WithContext(ctx).Create(&event).Error
}

func (j *gormJournal) ForTable(ctx context.Context, label string, limit int) ([]model.SessionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []model.SessionEvent
	err := j.db.WithContext(ctx).
		Where("table_label = ?", label).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Log records an event, tolerating a nil recorder and logging failures.
func Log(ctx context.Context, r Recorder, event model.SessionEvent) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, event); err != nil {
		log.Printf("journal: failed to record %q for table %q: %v", event.Event, event.TableLabel, err)
	}
}
