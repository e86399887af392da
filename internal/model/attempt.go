// internal/model/attempt.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt は1回の練習試行を表します。追記専用で、作成後に更新されることはない。
// ラウンド内の試行は RoundID が設定される。
type Attempt struct {
	AttemptID uuid.UUID  `gorm:"type:uuid;primaryKey" json:"attempt_id"`
	WordID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"word_id"`
	RoundID   *uuid.UUID `gorm:"type:uuid;index" json:"round_id,omitempty"`
	Correct   bool       `gorm:"not null" json:"correct"`
	TimeMs    int64      `gorm:"not null" json:"time_ms"`
	Owner     Owner      `gorm:"embedded" json:"-"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// 試行記録リクエストDTO。Correct / TimeMs は false / 0 と未指定を区別するためポインタ。
type PostAttemptRequest struct {
	WordID  uuid.UUID `json:"word_id" validate:"required"`
	Correct *bool     `json:"correct" validate:"required"`
	TimeMs  *int64    `json:"time_ms" validate:"required,gte=0"`
}

// PostAttemptResponse は試行記録のレスポンスDTO
type PostAttemptResponse struct {
	AttemptID uuid.UUID `json:"attempt_id"`
}
