package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Tables []*WatchedTable `gorm:"many2many:subscription_table_mapping;"`
}

// WatchedTable is a table label a subscription wants threshold alerts for.
type WatchedTable struct {
	Label string `gorm:"primaryKey;size:128"`
}
