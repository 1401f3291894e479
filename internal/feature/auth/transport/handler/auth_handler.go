// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"shelfflix_backend/internal/api"
	"shelfflix_backend/internal/feature/auth/domain/entity"
	"shelfflix_backend/internal/feature/auth/usecase"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error)
	Signin(ctx context.Context, email, password string) (*entity.User, *entity.Session, error)
	Signout(ctx context.Context, sessionID string) error
	ResolveSession(ctx context.Context, sessionID string) (*entity.User, error)
}

// SessionCookies はセッションCookieの発行・読み取り・削除を抽象化します。
type SessionCookies interface {
	Issue(w http.ResponseWriter, s *entity.Session) error
	SessionID(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth    AuthUsecase
	cookies SessionCookies
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - JSON不正・入力不備は400 "Invalid request"
// - メール重複は400 "Email already registered"
// - 成功時はセッションCookieを設定して200
func (h *AuthHandler) Signup(c *gin.Context) {
	req, err := bindSignup(c)
	if err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	previous := h.cookies.SessionID(c.Request)
	user, sess, err := h.auth.Signup(c.Request.Context(), string(req.Email), req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Info("signup rejected: email already registered", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email already registered"})
		case errors.Is(err, usecase.ErrInvalidInput):
			slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		default:
			slog.Error("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create account"})
		}
		return
	}

	if !h.startSession(c, sess, previous) {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create account"})
		return
	}
	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.UserResponse{User: toAPIUser(user)})
}

// bindSignup はサインアップのリクエストボディを読み取ります。
// 前後の空白を許容するため、メールアドレスは正規化してから形式チェックします。
func bindSignup(c *gin.Context) (api.SignupRequest, error) {
	var raw struct {
		api.SignupRequest
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&raw); err != nil {
		return api.SignupRequest{}, err
	}

	req := raw.SignupRequest
	req.Email = openapi_types.Email(usecase.NormalizeEmail(raw.Email))
	if _, err := req.Email.MarshalJSON(); err != nil {
		return api.SignupRequest{}, err
	}
	return req, nil
}

// Signin はユーザーログインAPIエンドポイントを処理します。
// 未登録のメールアドレスと誤ったパスワードは同じ401を返します。
func (h *AuthHandler) Signin(c *gin.Context) {
	var req api.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signin validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request"})
		return
	}

	previous := h.cookies.SessionID(c.Request)
	user, sess, err := h.auth.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("signin failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		slog.Error("signin failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to sign in"})
		return
	}

	if !h.startSession(c, sess, previous) {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to sign in"})
		return
	}
	slog.Info("user signin successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.UserResponse{User: toAPIUser(user)})
}

// Signout はセッションを破棄します。結果にかかわらずCookieは削除されます。
func (h *AuthHandler) Signout(c *gin.Context) {
	err := h.auth.Signout(c.Request.Context(), h.cookies.SessionID(c.Request))
	h.cookies.Clear(c.Writer)

	if err != nil {
		slog.Error("signout failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to sign out"})
		return
	}
	c.JSON(http.StatusOK, api.SignoutResponse{Success: true})
}

// Me は現在のセッションに紐づくユーザーを返します。
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.ResolveSession(c.Request.Context(), h.cookies.SessionID(c.Request))
	if err != nil {
		switch {
		// ErrUserNotFoundはErrUnauthenticatedにも一致するため先に判定する
		case errors.Is(err, usecase.ErrUserNotFound):
			h.cookies.Clear(c.Writer)
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not found"})
		case errors.Is(err, usecase.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		default:
			slog.Error("failed to load current user", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to load user"})
		}
		return
	}
	c.JSON(http.StatusOK, api.UserResponse{User: toAPIUser(user)})
}

// startSession は新しいセッションのCookieを発行し、以前のセッションを破棄します。
// Cookieを発行できなかった場合は新しいセッションも破棄してfalseを返します。
func (h *AuthHandler) startSession(c *gin.Context, sess *entity.Session, previous string) bool {
	ctx := c.Request.Context()

	if err := h.cookies.Issue(c.Writer, sess); err != nil {
		slog.Error("failed to issue session cookie", "error", err, "remote_addr", c.ClientIP())
		if err := h.auth.Signout(ctx, sess.ID); err != nil {
			slog.Warn("failed to discard unissued session", "error", err)
		}
		return false
	}

	if previous != "" && previous != sess.ID {
		if err := h.auth.Signout(ctx, previous); err != nil {
			slog.Warn("failed to destroy previous session", "error", err, "remote_addr", c.ClientIP())
		}
	}
	return true
}

func toAPIUser(u *entity.User) api.User {
	return api.User{
		Id:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
	}
}
