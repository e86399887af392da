// internal/middleware/dev_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"

	"go_5_flash_rounds/internal/config"
	"go_5_flash_rounds/internal/model"
)

// 開発時に X-Session-ID が省略された場合に使う固定セッションID
const devFallbackSessionID = "dev-session"

// DevOwnerMiddleware は開発時用ミドルウェアです。
// X-Session-ID ヘッダーの値を匿名所有者としてコンテキストに設定します。
// ヘッダーが無い場合は固定のセッションIDにフォールバックし、JWT検証は行いません。
func DevOwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(config.SessionIDHeader)
		if sessionID == "" {
			sessionID = devFallbackSessionID
			log.Printf("[DEV AUTH] %s header missing, falling back to %q", config.SessionIDHeader, devFallbackSessionID)
		}

		// DB検証はスキップ
		owner := model.AnonymousOwner(sessionID)
		ctx := context.WithValue(r.Context(), model.OwnerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
