package model

import "time"

// SessionEvent is one archived lifecycle transition (the journal's cold table).
type SessionEvent struct {
	ID         int64     `gorm:"autoIncrement;primaryKey"`
	TableLabel string    `gorm:"size:128;not null;index"`
	Event      string    `gorm:"size:32;not null"`
	SessionID  string    `gorm:"size:64"`
	ServerName string    `gorm:"size:128"`
	Detail     string    `gorm:"size:512"`
	OccurredAt time.Time `gorm:"not null;index"`
}
