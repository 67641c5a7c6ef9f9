package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskwave-api/internal/auth"
	"github.com/yukikurage/taskwave-api/internal/cache"
	"github.com/yukikurage/taskwave-api/internal/database"
	"github.com/yukikurage/taskwave-api/internal/mailer"
	"github.com/yukikurage/taskwave-api/internal/models"
	"github.com/yukikurage/taskwave-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is mid-afternoon so that "today" has room on both sides.
var fixedNow = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func fixedCalendar() Calendar {
	return Calendar{Now: func() time.Time { return fixedNow }, Loc: time.UTC}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", 24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func createUser(t *testing.T, repo repository.UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash", Name: "Test"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

// memoryOTPStore satisfies OTPStore and GrantStore.
type memoryOTPStore struct {
	mu      sync.Mutex
	codes   map[string]string
	grants  map[string]bool
	saveErr error
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{codes: map[string]string{}, grants: map[string]bool{}}
}

func (s *memoryOTPStore) SaveCode(ctx context.Context, username, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.codes[username] = codeHash
	return nil
}

func (s *memoryOTPStore) Code(ctx context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[username]
	if !ok {
		return "", cache.ErrMissing
	}
	return code, nil
}

func (s *memoryOTPStore) ConsumeCode(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.codes[username]
	delete(s.codes, username)
	return ok, nil
}

func (s *memoryOTPStore) Grant(ctx context.Context, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[username] = true
	return nil
}

func (s *memoryOTPStore) ConsumeGrant(ctx context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.grants[username]
	delete(s.grants, username)
	return ok, nil
}

// recordingSender captures outbound mail.
type recordingSender struct {
	err  error
	sent []mailer.Message
}

func (s *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

type stubSuggester struct {
	tasks []GeneratedTask
	err   error
}

func (s *stubSuggester) SuggestTasks(ctx context.Context, text string, now time.Time) ([]GeneratedTask, error) {
	return s.tasks, s.err
}
