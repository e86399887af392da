// internal/model/word.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Word は練習対象の単語を表します。Text は正規化済み (trim + lowercase)。
type Word struct {
	WordID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"word_id"`
	DictionaryID uuid.UUID  `gorm:"type:uuid;not null;index" json:"dictionary_id"`
	Text         string     `gorm:"not null;index" json:"text"`
	Tags         []string   `gorm:"serializer:json" json:"tags"`
	GradeLevel   *string    `json:"grade_level,omitempty"`
	Active       bool       `gorm:"not null;default:true;index" json:"active"` // 論理削除用フラグ
	ResetAt      *time.Time `json:"reset_at,omitempty"`                        // 統計のソフトリセット基準時刻。これ以前の試行は集計から除外
	Owner        Owner      `gorm:"embedded" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Word) TableName() string {
	return "words"
}

// 単語作成リクエストDTO
type PostWordRequest struct {
	Text         string    `json:"text" validate:"required"`
	DictionaryID uuid.UUID `json:"dictionary_id" validate:"required"`
	Tags         []string  `json:"tags,omitempty"`
	GradeLevel   *string   `json:"grade_level,omitempty"`
}

// 統計リセットリクエストDTO。word_id / dictionary_id / 指定なし(全単語) の3モード。
type ResetStatsRequest struct {
	WordID       *uuid.UUID `json:"word_id,omitempty"`
	DictionaryID *uuid.UUID `json:"dictionary_id,omitempty"`
}

// WordStats は試行履歴から算出する単語ごとの統計
type WordStats struct {
	Total         int      `json:"total"`
	CorrectRate   *float64 `json:"correct_rate"`    // 試行なしの場合 null
	TypicalTimeMs *int64   `json:"typical_time_ms"` // 全試行時間の中央値
	HighScoreMs   *int64   `json:"high_score_ms"`   // 正解試行の最速時間
}

// WordWithStatsResponse は単語一覧＋統計のレスポンスDTO
type WordWithStatsResponse struct {
	Word
	Stats WordStats `json:"stats"`
}

// DeleteWordResponse は単語削除のレスポンスDTO
type DeleteWordResponse struct {
	Success bool `json:"success"`
}
