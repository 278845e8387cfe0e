package notifications

import (
	stderrors "errors"

	"github.com/toothpick/loyalty/internal/models"
	"github.com/toothpick/loyalty/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewChatResolver returns a resolver backed by the notification_channels
// table. Lookup failures resolve to "no channel" so a storage hiccup never
// turns into a failed notification loop.
func NewChatResolver(db *gorm.DB) ChatResolver {
	return func(userID uint) (int64, bool) {
		var channel models.NotificationChannel
		err := db.Where("user_id = ?", userID).First(&channel).Error
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false
		}
		if err != nil {
			logger.Warn("chat lookup failed", "user_id", userID, "error", err)
			return 0, false
		}
		return channel.ChatID, true
	}
}

// LinkChat records (or replaces) the chat that receives a user's loyalty
// messages.
func LinkChat(db *gorm.DB, userID uint, chatID int64) error {
	channel := &models.NotificationChannel{UserID: userID, ChatID: chatID}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id"}),
	}).Create(channel).Error
}
