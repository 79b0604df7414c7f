package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wallet-chat-service/models"
)

// Well-formed wallet addresses for tests; already canonical.
const (
	addrAlice = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrBob   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrCarol = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database so the pool's connections see one store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Contact{},
		&models.Message{},
		&models.AuthorizedTask{},
		&models.Report{},
	))
	return db
}

func createConversation(t *testing.T, db *gorm.DB, user1, user2 string) uint {
	t.Helper()

	conversation := models.Conversation{User1: user1, User2: user2}
	require.NoError(t, db.Create(&conversation).Error)
	return conversation.ID
}
