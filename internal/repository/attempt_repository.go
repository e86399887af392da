// internal/repository/attempt_repository.go
package repository

import (
	"context"
	"fmt"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptRepository インターフェース。試行は追記専用のためUpdateは持たない。
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *model.Attempt) error
	FindByWordID(ctx context.Context, db *gorm.DB, wordID uuid.UUID) ([]*model.Attempt, error)
	DeleteByWordID(ctx context.Context, tx *gorm.DB, wordID uuid.UUID) error
}

type gormAttemptRepository struct{}

func NewGormAttemptRepository() AttemptRepository {
	return &gormAttemptRepository{}
}

func (r *gormAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *model.Attempt) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(attempt)
	if result.Error != nil {
		logger.Error("Error creating attempt in DB",
			"error", result.Error,
			"word_id", attempt.WordID.String(),
		)
		return fmt.Errorf("gormAttemptRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormAttemptRepository) FindByWordID(ctx context.Context, db *gorm.DB, wordID uuid.UUID) ([]*model.Attempt, error) {
	logger := middleware.GetLogger(ctx)
	var attempts []*model.Attempt
	result := db.WithContext(ctx).
		Where("word_id = ?", wordID).
		Order("created_at ASC").
		Find(&attempts)
	if result.Error != nil {
		logger.Error("Error finding attempts by word in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return nil, fmt.Errorf("gormAttemptRepository.FindByWordID: %w", result.Error)
	}
	return attempts, nil
}

// DeleteByWordID は単語に紐づく試行を物理削除します (単語削除時のクリーンアップ用)
func (r *gormAttemptRepository) DeleteByWordID(ctx context.Context, tx *gorm.DB, wordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).
		Where("word_id = ?", wordID).
		Delete(&model.Attempt{})
	if result.Error != nil {
		logger.Error("Error deleting attempts by word in DB",
			"error", result.Error,
			"word_id", wordID.String(),
		)
		return fmt.Errorf("gormAttemptRepository.DeleteByWordID: %w", result.Error)
	}
	return nil
}
