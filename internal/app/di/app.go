// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"shelfflix_backend/internal/app/router"
	authhandler "shelfflix_backend/internal/feature/auth/transport/handler"
	"shelfflix_backend/internal/feature/auth/usecase"
	"shelfflix_backend/internal/platform/cache"
	"shelfflix_backend/internal/platform/config"
	platformhandler "shelfflix_backend/internal/platform/http/handler"
	jwtmw "shelfflix_backend/internal/platform/jwt"
	"shelfflix_backend/internal/platform/session"
	"shelfflix_backend/internal/shared/ratelimiter"
)

// userCacheNamespace はRedis上のユーザーキャッシュキーの接頭辞です。
const userCacheNamespace = "shelfflix:users"

// Infra holds the external connections opened by the entrypoint. Either may be nil.
type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// App is the wired application.
type App struct {
	Router *gin.Engine
	// Sweeper prunes expired sessions; nil when the store expires them itself.
	Sweeper session.Expirer
	// AuthLimiter throttles signup/signin; nil when AUTH_RATE_LIMIT is 0.
	AuthLimiter *ratelimiter.RateLimiter
}

// NewApp wires stores, the authenticator, cookies and the router from cfg.
func NewApp(cfg *config.Config, infra Infra) (*App, error) {
	users, err := NewUserRepository(cfg.UserStore, infra.DB)
	if err != nil {
		return nil, err
	}
	if cfg.UserCacheTTL > 0 && infra.Redis != nil {
		users = cache.NewCachingUserRepository(infra.Redis, cfg.UserCacheTTL, users, userCacheNamespace)
	}
	sessions, err := NewSessionRepository(cfg.SessionStore, infra.Redis, infra.DB)
	if err != nil {
		return nil, err
	}

	authUC := usecase.NewAuthUsecase(users, sessions,
		usecase.WithBcryptCost(cfg.BcryptCost),
		usecase.WithSessionTTL(cfg.SessionTTL),
	)

	sealer, err := jwtmw.NewSealer(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create session sealer: %w", err)
	}
	cookies := session.NewCookies(sealer, session.CookieOptions{
		Secure: cfg.IsProduction(),
		MaxAge: cfg.SessionTTL,
	})

	limiter := ratelimiter.NewRateLimiter(cfg.AuthRateLimit, time.Minute)

	r := router.NewRouter(
		authhandler.NewAuthHandler(authUC, cookies),
		session.RequireSession(cookies, authUC),
		router.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			HealthChecks:   healthChecks(infra),
			AuthLimiter:    limiter,
			TrustedProxies: cfg.TrustedProxies,
		},
	)

	app := &App{Router: r, AuthLimiter: limiter}
	if cfg.SessionStore != config.StoreRedis {
		if exp, ok := sessions.(session.Expirer); ok {
			app.Sweeper = exp
		}
	}
	return app, nil
}

func healthChecks(infra Infra) map[string]platformhandler.Check {
	checks := map[string]platformhandler.Check{}
	if infra.DB != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := infra.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if infra.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return infra.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
