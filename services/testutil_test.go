package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/models"
)

// newTestDB opens an isolated in-memory database. The pool is pinned to one
// connection because each sqlite :memory: connection is its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}, &models.Notification{},
	))
	return db
}

func testConfig() config.AppConfig {
	return config.AppConfig{
		AllowComments:        true,
		NotificationPageSize: 10,
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedBannedUser(t *testing.T, db *gorm.DB, username, reason string, expires *time.Time) models.User {
	t.Helper()
	user := models.User{Username: username, IsBanned: true, BanReason: reason, BanExpires: expires}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, author models.User, title string) models.Post {
	t.Helper()
	now := time.Now()
	post := models.Post{
		UserID:        author.ID,
		Title:         title,
		Content:       "content of " + title,
		Status:        models.PostStatusPublished,
		PublishedDate: &now,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

// pushRecorder captures live pushes so tests can assert delivery ordering
// without a websocket.
type pushRecorder struct {
	mu     sync.Mutex
	pushed []*models.Notification
}

func (r *pushRecorder) PushNotification(n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, n)
}

func (r *pushRecorder) all() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification(nil), r.pushed...)
}

// newThreadStack wires the thread service with fan-out and a push recorder,
// mirroring the production wiring in routes.SetupRouter.
func newThreadStack(t *testing.T, db *gorm.DB, cfg config.AppConfig) (*ThreadService, *NotificationService, *pushRecorder) {
	t.Helper()
	recorder := &pushRecorder{}
	gate := NewModerationService(db)
	notifications := NewNotificationService(db, cfg, recorder)
	threads := NewThreadService(db, cfg, gate, notifications)
	return threads, notifications, recorder
}
