// internal/model/dictionary.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Dictionary はユーザーが所有する単語帳を表します
type Dictionary struct {
	DictionaryID uuid.UUID `gorm:"type:uuid;primaryKey" json:"dictionary_id"`
	Name         string    `gorm:"not null;index" json:"name"`
	Description  *string   `json:"description,omitempty"`
	Color        *string   `json:"color,omitempty"`
	Active       bool      `gorm:"not null;default:true;index" json:"active"` // 論理削除用フラグ
	Owner        Owner     `gorm:"embedded" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Dictionary) TableName() string {
	return "dictionaries"
}

// 単語帳作成リクエストDTO
type PostDictionaryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// 単語帳更新（部分）リクエストDTO
type PatchDictionaryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// DictionaryResponse は単語帳＋有効単語数のレスポンスDTO
type DictionaryResponse struct {
	Dictionary
	WordCount int64 `json:"word_count"`
}
