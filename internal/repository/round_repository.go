// internal/repository/round_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoundRepository インターフェース。ラウンドとラウンドアイテムの永続化を担当。
type RoundRepository interface {
	CreateRound(ctx context.Context, tx *gorm.DB, round *model.Round) error
	CreateItems(ctx context.Context, tx *gorm.DB, items []*model.RoundItem) error
	FindRoundByID(ctx context.Context, db *gorm.DB, owner model.Owner, roundID uuid.UUID) (*model.Round, error)
	FindItem(ctx context.Context, db *gorm.DB, roundID, wordID uuid.UUID) (*model.RoundItem, error)
	FindItemsByRound(ctx context.Context, db *gorm.DB, roundID uuid.UUID) ([]*model.RoundItem, error)
	UpdateItem(ctx context.Context, tx *gorm.DB, item *model.RoundItem) error
	CountUnsolved(ctx context.Context, db *gorm.DB, roundID uuid.UUID) (int64, error)
	UpdateRoundStatus(ctx context.Context, tx *gorm.DB, roundID uuid.UUID, status model.RoundStatus) error
}

type gormRoundRepository struct{}

func NewGormRoundRepository() RoundRepository {
	return &gormRoundRepository{}
}

func (r *gormRoundRepository) CreateRound(ctx context.Context, tx *gorm.DB, round *model.Round) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(round)
	if result.Error != nil {
		logger.Error("Error creating round in DB",
			"error", result.Error,
			"owner", round.Owner.String(),
		)
		return fmt.Errorf("gormRoundRepository.CreateRound: %w", result.Error)
	}
	return nil
}

// CreateItems はラウンドの全アイテムを一括作成します。
// ラウンド作成と同一トランザクション内で呼ぶ前提。
func (r *gormRoundRepository) CreateItems(ctx context.Context, tx *gorm.DB, items []*model.RoundItem) error {
	logger := middleware.GetLogger(ctx)
	if len(items) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Create(items)
	if result.Error != nil {
		logger.Error("Error creating round items in DB",
			"error", result.Error,
			"round_id", items[0].RoundID.String(),
			"count", len(items),
		)
		return fmt.Errorf("gormRoundRepository.CreateItems: %w", result.Error)
	}
	return nil
}

func (r *gormRoundRepository) FindRoundByID(ctx context.Context, db *gorm.DB, owner model.Owner, roundID uuid.UUID) (*model.Round, error) {
	logger := middleware.GetLogger(ctx)
	var round model.Round
	result := db.WithContext(ctx).Scopes(owner.Scope).
		Where("round_id = ?", roundID).
		First(&round)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding round by ID in DB",
			"error", result.Error,
			"round_id", roundID.String(),
		)
		return nil, fmt.Errorf("gormRoundRepository.FindRoundByID: %w", result.Error)
	}
	return &round, nil
}

func (r *gormRoundRepository) FindItem(ctx context.Context, db *gorm.DB, roundID, wordID uuid.UUID) (*model.RoundItem, error) {
	logger := middleware.GetLogger(ctx)
	var item model.RoundItem
	result := db.WithContext(ctx).
		Where("round_id = ? AND word_id = ?", roundID, wordID).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding round item in DB",
			"error", result.Error,
			"round_id", roundID.String(),
			"word_id", wordID.String(),
		)
		return nil, fmt.Errorf("gormRoundRepository.FindItem: %w", result.Error)
	}
	return &item, nil
}

func (r *gormRoundRepository) FindItemsByRound(ctx context.Context, db *gorm.DB, roundID uuid.UUID) ([]*model.RoundItem, error) {
	logger := middleware.GetLogger(ctx)
	var items []*model.RoundItem
	result := db.WithContext(ctx).
		Where("round_id = ?", roundID).
		Order("created_at ASC").
		Find(&items)
	if result.Error != nil {
		logger.Error("Error finding round items in DB",
			"error", result.Error,
			"round_id", roundID.String(),
		)
		return nil, fmt.Errorf("gormRoundRepository.FindItemsByRound: %w", result.Error)
	}
	return items, nil
}

func (r *gormRoundRepository) UpdateItem(ctx context.Context, tx *gorm.DB, item *model.RoundItem) error {
	logger := middleware.GetLogger(ctx)
	// Saveは主キーに基づいて全カラムを更新する。呼び出し元(Service)で存在確認済みの前提。
	result := tx.WithContext(ctx).Save(item)
	if result.Error != nil {
		logger.Error("Error updating round item in DB",
			"error", result.Error,
			"round_item_id", item.RoundItemID.String(),
		)
		return fmt.Errorf("gormRoundRepository.UpdateItem: %w", result.Error)
	}
	return nil
}

func (r *gormRoundRepository) CountUnsolved(ctx context.Context, db *gorm.DB, roundID uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.RoundItem{}).
		Where("round_id = ? AND solved = ?", roundID, false).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting unsolved round items in DB",
			"error", result.Error,
			"round_id", roundID.String(),
		)
		return 0, fmt.Errorf("gormRoundRepository.CountUnsolved: %w", result.Error)
	}
	return count, nil
}

func (r *gormRoundRepository) UpdateRoundStatus(ctx context.Context, tx *gorm.DB, roundID uuid.UUID, status model.RoundStatus) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Round{}).
		Where("round_id = ?", roundID).
		Update("status", status)
	if result.Error != nil {
		logger.Error("Error updating round status in DB",
			"error", result.Error,
			"round_id", roundID.String(),
		)
		return fmt.Errorf("gormRoundRepository.UpdateRoundStatus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
