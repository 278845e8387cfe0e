package notifications

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/toothpick/loyalty/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ntf_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	if err := db.AutoMigrate(&models.NotificationChannel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestChatResolver(t *testing.T) {
	db := setupDB(t)
	resolve := NewChatResolver(db)

	if _, ok := resolve(1); ok {
		t.Fatal("unlinked user resolved to a chat")
	}

	if err := LinkChat(db, 1, 555); err != nil {
		t.Fatalf("LinkChat() error = %v", err)
	}
	chatID, ok := resolve(1)
	if !ok || chatID != 555 {
		t.Errorf("resolve(1) = (%d, %v), want (555, true)", chatID, ok)
	}

	// Relinking replaces the chat
	if err := LinkChat(db, 1, 777); err != nil {
		t.Fatalf("relink error = %v", err)
	}
	chatID, _ = resolve(1)
	if chatID != 777 {
		t.Errorf("resolve(1) after relink = %d, want 777", chatID)
	}
}
