package models

import "time"

// NotificationChannel links a loyalty user to the Telegram chat that
// receives their loyalty messages. Rows are written by the account
// subsystem when a user connects the bot; absence just means no messages.
type NotificationChannel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex"`
	ChatID    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (NotificationChannel) TableName() string {
	return "notification_channels"
}
