// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go_5_flash_rounds/internal/config"
	"go_5_flash_rounds/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = testJWTSecret
	return cfg
}

// signTestToken はテスト用のJWTを発行するヘルパー関数
func signTestToken(t *testing.T, subject string, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func Test_OwnerAuthMiddleware(t *testing.T) {
	cfg := newTestAuthConfig()

	// ミドルウェア通過後の所有者をキャプチャするハンドラ
	var gotOwner model.Owner
	var called bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		owner, err := GetOwnerFromContext(r.Context())
		require.NoError(t, err)
		gotOwner = owner
		w.WriteHeader(http.StatusOK)
	})
	handler := OwnerAuthMiddleware(cfg)(next)

	tests := []struct {
		name       string
		setHeaders func(r *http.Request)
		wantCode   int
		wantOwner  *model.Owner
	}{
		{
			name: "正常系: 有効なBearerトークンは認証済み所有者になる",
			setHeaders: func(r *http.Request) {
				token := signTestToken(t, "user-123", testJWTSecret, time.Now().Add(time.Hour))
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantCode:  http.StatusOK,
			wantOwner: func() *model.Owner { o := model.AuthenticatedOwner("user-123"); return &o }(),
		},
		{
			name: "正常系: セッションIDヘッダーは匿名所有者になる",
			setHeaders: func(r *http.Request) {
				r.Header.Set(config.SessionIDHeader, "device-abc")
			},
			wantCode:  http.StatusOK,
			wantOwner: func() *model.Owner { o := model.AnonymousOwner("device-abc"); return &o }(),
		},
		{
			name: "正常系: Bearerトークンがあればセッションヘッダーより優先される",
			setHeaders: func(r *http.Request) {
				token := signTestToken(t, "user-123", testJWTSecret, time.Now().Add(time.Hour))
				r.Header.Set("Authorization", "Bearer "+token)
				r.Header.Set(config.SessionIDHeader, "device-abc")
			},
			wantCode:  http.StatusOK,
			wantOwner: func() *model.Owner { o := model.AuthenticatedOwner("user-123"); return &o }(),
		},
		{
			name:       "異常系: 資格情報なしは403",
			setHeaders: func(r *http.Request) {},
			wantCode:   http.StatusForbidden,
		},
		{
			name: "異常系: Authorizationヘッダーの形式が不正",
			setHeaders: func(r *http.Request) {
				r.Header.Set("Authorization", "NotBearer xxx")
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "異常系: 署名鍵が異なるトークン",
			setHeaders: func(r *http.Request) {
				token := signTestToken(t, "user-123", "wrong-secret", time.Now().Add(time.Hour))
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "異常系: 期限切れのトークン",
			setHeaders: func(r *http.Request) {
				token := signTestToken(t, "user-123", testJWTSecret, time.Now().Add(-time.Hour))
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "異常系: subjectのないトークン",
			setHeaders: func(r *http.Request) {
				token := signTestToken(t, "", testJWTSecret, time.Now().Add(time.Hour))
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			gotOwner = model.Owner{}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setHeaders(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantOwner != nil {
				require.True(t, called, "next handler should have been called")
				assert.Equal(t, *tt.wantOwner, gotOwner)
			} else {
				assert.False(t, called, "next handler should not have been called")
			}
		})
	}
}

func Test_DevOwnerMiddleware(t *testing.T) {
	var gotOwner model.Owner
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := GetOwnerFromContext(r.Context())
		require.NoError(t, err)
		gotOwner = owner
		w.WriteHeader(http.StatusOK)
	})
	handler := DevOwnerMiddleware(next)

	t.Run("正常系: セッションIDヘッダーをそのまま使う", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(config.SessionIDHeader, "device-abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.AnonymousOwner("device-abc"), gotOwner)
	})

	t.Run("正常系: ヘッダーがなければ固定セッションにフォールバック", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.AnonymousOwner(devFallbackSessionID), gotOwner)
	})
}
