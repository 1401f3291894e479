// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shelfflix_backend/internal/feature/auth/domain/entity"
)

const (
	// DefaultSessionTTL はセッションの有効期間のデフォルト値（7日）です。
	DefaultSessionTTL = 7 * 24 * time.Hour

	// maxPasswordBytes はbcryptが扱えるパスワードの最大バイト数です。
	maxPasswordBytes = 72

	// sessionIDBytes はセッションIDの乱数バイト数です（256bit）。
	sessionIDBytes = 32

	// maxUsernameAttempts はユーザー名衝突時の最大試行回数です。
	maxUsernameAttempts = 3

	// dummyPasswordHash はダミーハッシュを生成できなかった場合の代替値です（コスト10）。
	dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合はErrEmailAlreadyExists、
	// ユーザー名が衝突した場合はErrUsernameTakenを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// Option はauthUsecaseの設定を変更します。
type Option func(*authUsecase)

// WithBcryptCost はパスワードハッシュのbcryptコストを設定します。
// 範囲外の値はbcrypt.DefaultCostに置き換えられます。
func WithBcryptCost(cost int) Option {
	return func(u *authUsecase) {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		u.bcryptCost = cost
	}
}

// WithSessionTTL はセッションの有効期間を設定します。
func WithSessionTTL(ttl time.Duration) Option {
	return func(u *authUsecase) {
		if ttl > 0 {
			u.sessionTTL = ttl
		}
	}
}

// WithClock は現在時刻の取得関数を差し替えます（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(u *authUsecase) {
		if now != nil {
			u.now = now
		}
	}
}

// WithSessionIDGenerator はセッションIDの生成関数を差し替えます（テスト用）。
func WithSessionIDGenerator(gen func() (string, error)) Option {
	return func(u *authUsecase) {
		if gen != nil {
			u.newSessionID = gen
		}
	}
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users        UserRepository
	sessions     SessionRepository
	bcryptCost   int
	sessionTTL   time.Duration
	now          func() time.Time
	newSessionID func() (string, error)
	// dummyHash はユーザーが存在しない場合の比較に使うハッシュで、bcryptCostと同じコストで生成します。
	dummyHash string
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, opts ...Option) *authUsecase {
	u := &authUsecase{
		users:        users,
		sessions:     sessions,
		bcryptCost:   bcrypt.DefaultCost,
		sessionTTL:   DefaultSessionTTL,
		now:          time.Now,
		newSessionID: GenerateSessionID,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.dummyHash = newDummyHash(u.bcryptCost)
	return u
}

// newDummyHash は未登録ユーザーのサインインでも実ユーザーと同じ比較コストがかかるよう、
// 指定コストのダミーハッシュを生成します。
func newDummyHash(cost int) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return dummyPasswordHash
	}
	hashed, err := bcrypt.GenerateFromPassword(b, cost)
	if err != nil {
		return dummyPasswordHash
	}
	return string(hashed)
}

// GenerateSessionID は暗号論的に安全なセッションIDを生成します。
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NormalizeEmail はメールアドレスの前後の空白を除去し小文字化します。
// 一意性チェックと検索はすべてこの正規化後の値で行います。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateSignup はサインアップ入力が最低限の要件を満たしているかチェックします。
func validateSignup(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録し、セッションを発行します。
// ハッシュ計算はストアのロック外で行われます。
func (u *authUsecase) Signup(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
	email = NormalizeEmail(email)
	if err := validateSignup(email, password); err != nil {
		return nil, nil, err
	}

	// 高コストなハッシュ計算の前に重複を検出する（最終判定はストアのCreate）
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     normalizeFullName(fullName),
	}
	if err := u.createWithUsername(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := u.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// createWithUsername はユーザー名を導出してユーザーを作成します。
// ユーザー名が衝突した場合はランダムなサフィックスを付けて再試行します。
func (u *authUsecase) createWithUsername(ctx context.Context, user *entity.User) error {
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		username, err := deriveUsername(user.Email, u.now(), attempt)
		if err != nil {
			return err
		}
		user.Username = username

		err = u.users.Create(ctx, user)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to allocate username after %d attempts: %w", maxUsernameAttempts, ErrUsernameTaken)
}

// Signin はユーザーを認証し、成功時にセッションを発行します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
// 未登録のメールアドレスと誤ったパスワードはどちらもErrInvalidCredentialsになります。
func (u *authUsecase) Signin(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash := u.dummyHash
	if err == nil {
		passwordHash = user.PasswordHash
	}

	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := u.issueSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Signout はセッションを破棄します。存在しないセッションの破棄はエラーになりません。
func (u *authUsecase) Signout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ResolveSession はセッションIDを対応するユーザーに解決します。
// セッションが存在しない・期限切れの場合はErrUnauthenticatedを返します。
// 参照先ユーザーが消えている場合はセッションを削除し、ErrUnauthenticatedと
// ErrUserNotFoundの両方に一致するエラーを返します。
func (u *authUsecase) ResolveSession(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}

	session, err := u.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.IsExpired(u.now()) {
		_ = u.sessions.Delete(ctx, sessionID)
		return nil, ErrUnauthenticated
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		_ = u.sessions.Delete(ctx, sessionID)
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// issueSession は指定されたユーザーに紐づく新しいセッションを作成します。
func (u *authUsecase) issueSession(ctx context.Context, userID string) (*entity.Session, error) {
	id, err := u.newSessionID()
	if err != nil {
		return nil, err
	}

	now := u.now()
	session := &entity.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(u.sessionTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// normalizeFullName は空白のみの表示名をnilとして扱います。
func normalizeFullName(fullName *string) *string {
	if fullName == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*fullName)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
