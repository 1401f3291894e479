package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "shelfflix_backend/internal/feature/auth/transport/handler"
	platformhandler "shelfflix_backend/internal/platform/http/handler"
	"shelfflix_backend/internal/shared/ratelimiter"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins はCookie付きリクエストを許可するフロントエンドのオリジンです。空ならCORSを無効にします。
	AllowedOrigins []string
	// HealthChecks are run by /healthz.
	HealthChecks map[string]platformhandler.Check
	// TrustedProxies はX-Forwarded-Forを信頼するプロキシのIP/CIDRです。空ならどのプロキシも信頼しません。
	TrustedProxies []string
	// AuthLimiter throttles signup and signin per client. nil disables it.
	AuthLimiter *ratelimiter.RateLimiter
	// Library registers routes under /api/library, behind RequireSession.
	Library []func(*gin.RouterGroup)
}

func NewRouter(authHandler *authhandler.AuthHandler, requireSession gin.HandlerFunc, opts Options) *gin.Engine {
	r := gin.New()
	// ClientIPはレート制限のキーになるため、未設定時は接続元アドレスのみを使う
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), requestLogger())

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 導通確認用
	health := platformhandler.Health(opts.HealthChecks)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// 認証不要
	auth := r.Group("/api/auth")
	{
		limit := opts.AuthLimiter.Middleware()
		auth.POST("/signup", limit, authHandler.Signup)
		auth.POST("/signin", limit, authHandler.Signin)
		auth.POST("/signout", authHandler.Signout)
		// 401の理由を区別するため、ミドルウェアではなくハンドラーで解決する
		auth.GET("/me", authHandler.Me)
	}

	// 認証必須のルート
	library := r.Group("/api/library")
	library.Use(requireSession)
	for _, register := range opts.Library {
		register(library)
	}

	return r
}

// requestLogger はリクエストごとにslogでアクセスログを出力します。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"remote_addr", c.ClientIP(),
		)
	}
}
