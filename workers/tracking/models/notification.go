package models

import "time"

// Notification represents the status_notifications table: one row per
// status change delivered to chat.
type Notification struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackingNumber string    `gorm:"size:100;not null;index" json:"tracking_number"`
	Channel        string    `gorm:"size:100;not null" json:"channel"`
	Kind           string    `gorm:"size:32;not null" json:"kind"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	SentAt         time.Time `gorm:"not null;index" json:"sent_at"`
}

func (Notification) TableName() string {
	return "status_notifications"
}
