// internal/repository/word_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WordRepository インターフェース
type WordRepository interface {
	Create(ctx context.Context, tx *gorm.DB, word *model.Word) error
	FindByID(ctx context.Context, db *gorm.DB, owner model.Owner, wordID uuid.UUID) (*model.Word, error)
	FindActiveByDictionary(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID) ([]*model.Word, error)
	CheckTextExists(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID, text string) (bool, error)
	CountActiveByDictionary(ctx context.Context, db *gorm.DB, dictID uuid.UUID) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, owner model.Owner, wordID uuid.UUID, updates map[string]interface{}) error
	ResetStats(ctx context.Context, tx *gorm.DB, owner model.Owner, dictID *uuid.UUID, at time.Time) error
}

type gormWordRepository struct{}

func NewGormWordRepository() WordRepository {
	return &gormWordRepository{}
}

func (r *gormWordRepository) Create(ctx context.Context, tx *gorm.DB, word *model.Word) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(word)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return model.ErrConflict
		}
		logger.Error("Error creating word in DB",
			"error", result.Error,
			"owner", word.Owner.String(),
			"text", word.Text,
		)
		return fmt.Errorf("gormWordRepository.Create: %w", result.Error)
	}
	return nil
}

// FindByID は有効な (active=true) 単語のみを対象とします
func (r *gormWordRepository) FindByID(ctx context.Context, db *gorm.DB, owner model.Owner, wordID uuid.UUID) (*model.Word, error) {
	logger := middleware.GetLogger(ctx)
	var word model.Word
	result := db.WithContext(ctx).Scopes(owner.Scope).
		Where("word_id = ? AND active = ?", wordID, true).
		First(&word)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding word by ID in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return nil, fmt.Errorf("gormWordRepository.FindByID: %w", result.Error)
	}
	return &word, nil
}

// FindActiveByDictionary は単語帳内の有効な単語を単語文字列の昇順で返します
func (r *gormWordRepository) FindActiveByDictionary(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID) ([]*model.Word, error) {
	logger := middleware.GetLogger(ctx)
	var words []*model.Word
	result := db.WithContext(ctx).Scopes(owner.Scope).
		Where("dictionary_id = ? AND active = ?", dictID, true).
		Order("text ASC").
		Find(&words)
	if result.Error != nil {
		logger.Error("Error finding words by dictionary in DB",
			"error", result.Error,
			"dictionary_id", dictID.String(),
		)
		return nil, fmt.Errorf("gormWordRepository.FindActiveByDictionary: %w", result.Error)
	}
	return words, nil
}

// CheckTextExists は同一単語帳内の有効な単語で正規化済みテキストの重複を確認します
func (r *gormWordRepository) CheckTextExists(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID, text string) (bool, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Word{}).Scopes(owner.Scope).
		Where("dictionary_id = ? AND text = ? AND active = ?", dictID, text, true).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error checking word text existence in DB",
			"error", result.Error,
			"dictionary_id", dictID.String(),
			"text", text,
		)
		return false, fmt.Errorf("gormWordRepository.CheckTextExists: %w", result.Error)
	}
	return count > 0, nil
}

func (r *gormWordRepository) CountActiveByDictionary(ctx context.Context, db *gorm.DB, dictID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Word{}).
		Where("dictionary_id = ? AND active = ?", dictID, true).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting words by dictionary in DB",
			"error", result.Error,
			"dictionary_id", dictID.String(),
		)
		return 0, fmt.Errorf("gormWordRepository.CountActiveByDictionary: %w", result.Error)
	}
	return count, nil
}

func (r *gormWordRepository) Update(ctx context.Context, tx *gorm.DB, owner model.Owner, wordID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Word{}).Scopes(owner.Scope).
		Where("word_id = ?", wordID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating word in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormWordRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ResetStats は所有者の有効な単語の reset_at を一括更新します。
// dictID を指定した場合はその単語帳内のみ。対象0件はエラーにしない。
func (r *gormWordRepository) ResetStats(ctx context.Context, tx *gorm.DB, owner model.Owner, dictID *uuid.UUID, at time.Time) error {
	logger := middleware.GetLogger(ctx)
	query := tx.WithContext(ctx).Model(&model.Word{}).Scopes(owner.Scope).
		Where("active = ?", true)
	if dictID != nil {
		query = query.Where("dictionary_id = ?", *dictID)
	}
	result := query.Update("reset_at", at)
	if result.Error != nil {
		logger.Error("Error resetting word stats in DB",
			"error", result.Error,
			"owner", owner.String(),
		)
		return fmt.Errorf("gormWordRepository.ResetStats: %w", result.Error)
	}
	return nil
}
