// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "FlashRounds"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort  = ":8080"
	DefaultLogLevel    = "info"
	DefaultRepsPerWord = 3
)

// 匿名セッションIDを受け取るリクエストヘッダ名
const SessionIDHeader = "X-Session-ID"
