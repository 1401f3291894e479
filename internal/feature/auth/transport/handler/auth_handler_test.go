package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfflix_backend/internal/feature/auth/domain/entity"
	"shelfflix_backend/internal/feature/auth/usecase"
	jwtmw "shelfflix_backend/internal/platform/jwt"
	"shelfflix_backend/internal/platform/session"
)

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
type mockAuthUsecase struct {
	SignupFunc         func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error)
	SigninFunc         func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error)
	SignoutFunc        func(ctx context.Context, sessionID string) error
	ResolveSessionFunc func(ctx context.Context, sessionID string) (*entity.User, error)

	signedOut []string
}

func (m *mockAuthUsecase) Signup(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, password, fullName)
	}
	return nil, nil, errors.New("signup not configured")
}

func (m *mockAuthUsecase) Signin(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
	if m.SigninFunc != nil {
		return m.SigninFunc(ctx, email, password)
	}
	return nil, nil, usecase.ErrInvalidCredentials
}

func (m *mockAuthUsecase) Signout(ctx context.Context, sessionID string) error {
	m.signedOut = append(m.signedOut, sessionID)
	if m.SignoutFunc != nil {
		return m.SignoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthUsecase) ResolveSession(ctx context.Context, sessionID string) (*entity.User, error) {
	if m.ResolveSessionFunc != nil {
		return m.ResolveSessionFunc(ctx, sessionID)
	}
	return nil, usecase.ErrUnauthenticated
}

// failingCodec always fails to seal, to exercise the cookie error path.
type failingCodec struct{}

func (failingCodec) Seal(string, time.Time) (string, error) { return "", errors.New("seal failed") }
func (failingCodec) Open(string) (string, error)            { return "", errors.New("open failed") }

var (
	testFullName = "Ada Reader"
	testUser     = &entity.User{ID: "user-1", Email: "a@example.com", Username: "a_1", FullName: &testFullName}
)

func testSession(id string) *entity.Session {
	now := time.Now()
	return &entity.Session{ID: id, UserID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
}

func newTestCookies(t *testing.T) *session.Cookies {
	t.Helper()
	sealer, err := jwtmw.NewSealer("handler-test-secret")
	require.NoError(t, err)
	return session.NewCookies(sealer, session.CookieOptions{})
}

// sealedCookie returns a valid session cookie for id.
func sealedCookie(t *testing.T, cookies *session.Cookies, id string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, cookies.Issue(rec, testSession(id)))
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	require.FailNow(t, "cookie not issued")
	return nil
}

func setupRouter(h *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/signin", h.Signin)
	r.POST("/api/auth/signout", h.Signout)
	r.GET("/api/auth/me", h.Me)
	return r
}

func perform(r *gin.Engine, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func responseCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Signup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    any
		mockSignupFunc func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error)
		expectedStatus int
		expectedBody   string
		expectCookie   bool
	}{
		{
			name:        "success: user registration",
			requestBody: gin.H{"email": "a@example.com", "password": "secret1", "fullName": "Ada Reader"},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				require.NotNil(t, fullName)
				assert.Equal(t, "Ada Reader", *fullName)
				return testUser, testSession("new-session"), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user":{"id":"user-1","email":"a@example.com","fullName":"Ada Reader"}}`,
			expectCookie:   true,
		},
		{
			name:        "success: fullName omitted is null",
			requestBody: gin.H{"email": "b@example.com", "password": "secret1"},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				assert.Nil(t, fullName)
				return &entity.User{ID: "user-2", Email: email}, testSession("new-session"), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user":{"id":"user-2","email":"b@example.com","fullName":null}}`,
			expectCookie:   true,
		},
		{
			name:        "success: padded mixed-case email is normalized before validation",
			requestBody: gin.H{"email": "  A@Example.com ", "password": "secret1"},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				assert.Equal(t, "a@example.com", email)
				return &entity.User{ID: "user-3", Email: email}, testSession("new-session"), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user":{"id":"user-3","email":"a@example.com","fullName":null}}`,
			expectCookie:   true,
		},
		{
			name:           "failure: malformed email",
			requestBody:    gin.H{"email": "not-an-email", "password": "secret1"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request"}`,
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "a@example.com", "password": "secret1"},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				return nil, nil, usecase.ErrEmailAlreadyExists
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Email already registered"}`,
		},
		{
			name:        "failure: invalid input from usecase",
			requestBody: gin.H{"email": "a@example.com", "password": ""},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				return nil, nil, fmt.Errorf("%w: password is required", usecase.ErrInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request"}`,
		},
		{
			name:           "failure: malformed json",
			requestBody:    `{"email":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request"}`,
		},
		{
			name:        "failure: store error",
			requestBody: gin.H{"email": "a@example.com", "password": "secret1"},
			mockSignupFunc: func(ctx context.Context, email, password string, fullName *string) (*entity.User, *entity.Session, error) {
				return nil, nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to create account"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAuthUsecase{SignupFunc: tt.mockSignupFunc}
			r := setupRouter(NewAuthHandler(mockUC, newTestCookies(t)))

			w := perform(r, http.MethodPost, "/api/auth/signup", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())

			c := responseCookie(w)
			if tt.expectCookie {
				require.NotNil(t, c)
				assert.NotEmpty(t, c.Value)
				assert.True(t, c.HttpOnly)
			} else {
				assert.Nil(t, c)
			}
		})
	}
}

func TestAuthHandler_Signin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    any
		mockSigninFunc func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success: signin",
			requestBody: gin.H{"email": "a@example.com", "password": "secret1"},
			mockSigninFunc: func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
				return testUser, testSession("signin-session"), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user":{"id":"user-1","email":"a@example.com","fullName":"Ada Reader"}}`,
		},
		{
			name:        "failure: invalid credentials",
			requestBody: gin.H{"email": "a@example.com", "password": "wrong"},
			mockSigninFunc: func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
				return nil, nil, usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid email or password"}`,
		},
		{
			name:           "failure: malformed json",
			requestBody:    `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request"}`,
		},
		{
			name:        "failure: store error",
			requestBody: gin.H{"email": "a@example.com", "password": "secret1"},
			mockSigninFunc: func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
				return nil, nil, errors.New("redis down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to sign in"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAuthUsecase{SigninFunc: tt.mockSigninFunc}
			r := setupRouter(NewAuthHandler(mockUC, newTestCookies(t)))

			w := perform(r, http.MethodPost, "/api/auth/signin", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAuthHandler_SigninReplacesPreviousSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cookies := newTestCookies(t)
	mockUC := &mockAuthUsecase{
		SigninFunc: func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
			return testUser, testSession("fresh-session"), nil
		},
	}
	r := setupRouter(NewAuthHandler(mockUC, cookies))

	w := perform(r, http.MethodPost, "/api/auth/signin",
		gin.H{"email": "a@example.com", "password": "secret1"}, sealedCookie(t, cookies, "old-session"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"old-session"}, mockUC.signedOut)
}

func TestAuthHandler_CookieIssueFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockUC := &mockAuthUsecase{
		SigninFunc: func(ctx context.Context, email, password string) (*entity.User, *entity.Session, error) {
			return testUser, testSession("orphan-session"), nil
		},
	}
	r := setupRouter(NewAuthHandler(mockUC, session.NewCookies(failingCodec{}, session.CookieOptions{})))

	w := perform(r, http.MethodPost, "/api/auth/signin", gin.H{"email": "a@example.com", "password": "secret1"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to sign in"}`, w.Body.String())
	assert.Equal(t, []string{"orphan-session"}, mockUC.signedOut)
}

func TestAuthHandler_Signout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		withCookie      bool
		signoutErr      error
		expectedStatus  int
		expectedBody    string
		expectedSignout string
	}{
		{
			name:            "success: with session",
			withCookie:      true,
			expectedStatus:  http.StatusOK,
			expectedBody:    `{"success":true}`,
			expectedSignout: "session-1",
		},
		{
			name:           "success: without session",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true}`,
		},
		{
			name:            "failure: store error still clears cookie",
			withCookie:      true,
			signoutErr:      errors.New("redis down"),
			expectedStatus:  http.StatusInternalServerError,
			expectedBody:    `{"error":"Failed to sign out"}`,
			expectedSignout: "session-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := newTestCookies(t)
			mockUC := &mockAuthUsecase{SignoutFunc: func(ctx context.Context, sessionID string) error { return tt.signoutErr }}
			r := setupRouter(NewAuthHandler(mockUC, cookies))

			var cookie *http.Cookie
			if tt.withCookie {
				cookie = sealedCookie(t, cookies, "session-1")
			}
			w := perform(r, http.MethodPost, "/api/auth/signout", nil, cookie)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, []string{tt.expectedSignout}, mockUC.signedOut)

			cleared := responseCookie(w)
			require.NotNil(t, cleared)
			assert.Empty(t, cleared.Value)
			assert.Equal(t, -1, cleared.MaxAge)
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		resolveErr     error
		resolveUser    *entity.User
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: current user",
			resolveUser:    testUser,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"user":{"id":"user-1","email":"a@example.com","fullName":"Ada Reader"}}`,
		},
		{
			name:           "failure: not authenticated",
			resolveErr:     usecase.ErrUnauthenticated,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Not authenticated"}`,
		},
		{
			name:           "failure: dangling user",
			resolveErr:     fmt.Errorf("%w: %w", usecase.ErrUnauthenticated, usecase.ErrUserNotFound),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"User not found"}`,
		},
		{
			name:           "failure: store error",
			resolveErr:     errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to load user"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookies := newTestCookies(t)
			var gotID string
			mockUC := &mockAuthUsecase{
				ResolveSessionFunc: func(ctx context.Context, sessionID string) (*entity.User, error) {
					gotID = sessionID
					return tt.resolveUser, tt.resolveErr
				},
			}
			r := setupRouter(NewAuthHandler(mockUC, cookies))

			w := perform(r, http.MethodGet, "/api/auth/me", nil, sealedCookie(t, cookies, "session-1"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, "session-1", gotID)
		})
	}
}
