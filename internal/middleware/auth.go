// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go_5_flash_rounds/internal/config"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/webutil"

	"github.com/golang-jwt/jwt/v5"
)

// OwnerAuthMiddleware はリクエストを所有者キーに解決するミドルウェア。
// Authorization ヘッダーの Bearer トークンが有効なら認証済みユーザー、
// なければ X-Session-ID ヘッダーの値を匿名セッションとして扱う。
// どちらも無い場合はエラーを返す。
func OwnerAuthMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// "Bearer {token}" の形式を検証
				headerParts := strings.Split(authHeader, " ")
				if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
					logger.Warn("Owner resolution failed: Invalid Authorization header format")
					appErr := model.NewAppError("UNAUTHORIZED", "Authorizationヘッダーの形式が正しくありません。", "", model.ErrForbidden)
					webutil.HandleError(w, logger, appErr)
					return
				}
				tokenString := headerParts[1]

				// JWTをパースし、署名と有効期限を検証
				token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
					// 署名アルゴリズムが期待通り(HS256)かチェック
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, errors.New("unexpected signing method")
					}
					return []byte(cfg.Auth.JWTSecret), nil
				})
				if err != nil || !token.Valid {
					logger.Warn("Owner resolution failed: Invalid token", "error", err)
					appErr := model.NewAppError("INVALID_TOKEN", "トークンが無効です。", "", model.ErrForbidden)
					webutil.HandleError(w, logger, appErr)
					return
				}

				// ペイロードから subject (ユーザーID) を取得
				subject, err := token.Claims.GetSubject()
				if err != nil || subject == "" {
					logger.Warn("Owner resolution failed: Subject (sub) claim missing", "error", err)
					appErr := model.NewAppError("INVALID_TOKEN", "トークンにユーザー情報が含まれていません。", "", model.ErrForbidden)
					webutil.HandleError(w, logger, appErr)
					return
				}

				owner := model.AuthenticatedOwner(subject)
				ctx := context.WithValue(r.Context(), model.OwnerKey, owner)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// 匿名セッション (デバイスID)
			sessionID := r.Header.Get(config.SessionIDHeader)
			if sessionID == "" {
				logger.Warn("Owner resolution failed: No credentials provided")
				appErr := model.NewAppError("UNAUTHORIZED", "認証トークンまたはセッションIDが必要です。", "", model.ErrForbidden)
				webutil.HandleError(w, logger, appErr)
				return
			}

			owner := model.AnonymousOwner(sessionID)
			ctx := context.WithValue(r.Context(), model.OwnerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOwnerFromContext はコンテキストから所有者キーを取得します
func GetOwnerFromContext(ctx context.Context) (model.Owner, error) {
	owner, ok := ctx.Value(model.OwnerKey).(model.Owner)
	if !ok || !owner.Valid() {
		// ミドルウェアが正しく動作していない等の内部エラー
		return model.Owner{}, model.NewAppError("INTERNAL_SERVER_ERROR", "コンテキストから所有者情報を取得できませんでした。", "", model.ErrInternalServer)
	}
	return owner, nil
}
