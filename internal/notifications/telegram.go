package notifications

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/toothpick/loyalty/pkg/logger"
)

// ChatResolver maps a loyalty user id to a Telegram chat id. Users without
// a linked chat are silently skipped. The mapping lives in the account
// subsystem.
type ChatResolver func(userID uint) (int64, bool)

// TelegramNotifier delivers best-effort loyalty messages. Send failures are
// logged and dropped: notifications must never affect ledger outcomes.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	resolve ChatResolver
}

func NewTelegramNotifier(token string, resolve ChatResolver) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	logger.Info("telegram notifier ready", "bot", bot.Self.UserName)
	return &TelegramNotifier{
		bot:     bot,
		resolve: resolve,
	}, nil
}

func (n *TelegramNotifier) TierPromoted(userID uint, tier string) {
	n.send(userID, fmt.Sprintf("🎉 Congratulations! You've reached %s tier.", tier))
}

func (n *TelegramNotifier) ReferralCompleted(referrerID, referredUserID uint, points int64) {
	n.send(referrerID, fmt.Sprintf("👥 Your referral completed their first order — %d points added!", points))
	n.send(referredUserID, fmt.Sprintf("👥 Welcome bonus! %d referral points added to your account.", points))
}

func (n *TelegramNotifier) send(userID uint, text string) {
	chatID, ok := n.resolve(userID)
	if !ok {
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		logger.Warn("failed to send notification", "user_id", userID, "error", err)
	}
}
