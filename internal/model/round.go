// internal/model/round.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundStatusActive RoundStatus = "active"
	RoundStatusDone   RoundStatus = "done"
)

// Round は固定された単語セットに対する1回の練習ラウンドを表します。
// 目標 (RepsPerWord / MaxTimeMs) は作成時に確定し、以後変更されない。
type Round struct {
	RoundID     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"round_id"`
	Status      RoundStatus `gorm:"not null;default:active;index" json:"status"`
	RepsPerWord int         `gorm:"not null" json:"reps_per_word"`
	MaxTimeMs   *int64      `json:"max_time_ms,omitempty"`
	Owner       Owner       `gorm:"embedded" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Round) TableName() string {
	return "rounds"
}

// RoundItem はラウンド内の単語ごとの進捗を表します。
// RepsDone は正解時のみ+1で単調増加、BestTimeMs は全試行時間のmin。
type RoundItem struct {
	RoundItemID uuid.UUID `gorm:"type:uuid;primaryKey" json:"round_item_id"`
	RoundID     uuid.UUID `gorm:"type:uuid;not null;index:idx_round_word,unique" json:"round_id"`
	WordID      uuid.UUID `gorm:"type:uuid;not null;index:idx_round_word,unique" json:"word_id"`
	RepsDone    int       `gorm:"not null;default:0" json:"reps_done"`
	BestTimeMs  *int64    `json:"best_time_ms,omitempty"`
	Solved      bool      `gorm:"not null;default:false" json:"solved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (RoundItem) TableName() string {
	return "round_items"
}

// ラウンド開始リクエストDTO。WordIDs の空チェックはこの層では行わない。
type StartRoundRequest struct {
	WordIDs     []uuid.UUID `json:"word_ids"`
	RepsPerWord int         `json:"reps_per_word" validate:"required,gte=1"`
	MaxTimeMs   *int64      `json:"max_time_ms,omitempty" validate:"omitempty,gt=0"`
}

// StartRoundResponse はラウンド開始のレスポンスDTO
type StartRoundResponse struct {
	RoundID uuid.UUID `json:"round_id"`
}

// ラウンド内試行記録リクエストDTO
type RoundAttemptRequest struct {
	WordID  uuid.UUID `json:"word_id" validate:"required"`
	Correct *bool     `json:"correct" validate:"required"`
	TimeMs  *int64    `json:"time_ms" validate:"required,gte=0"`
}

// RoundStateResponse はクライアントに返すラウンドの状態投影
type RoundStateResponse struct {
	Round  *Round       `json:"round"`
	Items  []*RoundItem `json:"items"`
	Solved int          `json:"solved"`
	Total  int          `json:"total"`
}
