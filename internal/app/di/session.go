package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"shelfflix_backend/internal/feature/auth/adapters"
	"shelfflix_backend/internal/feature/auth/usecase"
	"shelfflix_backend/internal/platform/config"
	"shelfflix_backend/internal/platform/session"
)

// sessionKeyPrefix はRedis上のセッションキーの接頭辞です。
const sessionKeyPrefix = "shelfflix:session"

// NewSessionRepository creates the SessionRepository selected by SESSION_STORE.
// redis needs rdb, db needs a gorm connection; memory needs neither.
func NewSessionRepository(store string, rdb *redis.Client, db *gorm.DB) (usecase.SessionRepository, error) {
	switch store {
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("SESSION_STORE=%s requires a Redis connection", store)
		}
		return session.NewSessionRedis(rdb, sessionKeyPrefix), nil
	case config.StoreDB:
		if db == nil {
			return nil, fmt.Errorf("SESSION_STORE=%s requires a database connection", store)
		}
		return adapters.NewSessionGorm(db), nil
	case config.StoreMemory, "":
		return session.NewMemory(nil), nil
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE %q", store)
	}
}

// NewUserRepository creates the UserRepository selected by USER_STORE.
func NewUserRepository(store string, db *gorm.DB) (usecase.UserRepository, error) {
	switch store {
	case config.StoreDB:
		if db == nil {
			return nil, fmt.Errorf("USER_STORE=%s requires a database connection", store)
		}
		return adapters.NewUserGorm(db), nil
	case config.StoreMemory, "":
		return adapters.NewUserMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported USER_STORE %q", store)
	}
}
