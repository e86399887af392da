// internal/repository/dictionary_repository.go
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

// DictionaryRepository インターフェース
type DictionaryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, dict *model.Dictionary) error
	FindByID(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID) (*model.Dictionary, error)
	FindActiveByOwner(ctx context.Context, db *gorm.DB, owner model.Owner) ([]*model.Dictionary, error)
	CheckNameExists(ctx context.Context, db *gorm.DB, owner model.Owner, name string, excludeDictID *uuid.UUID) (bool, error)
	CountActiveByOwner(ctx context.Context, db *gorm.DB, owner model.Owner, excludeDictID *uuid.UUID) (int64, error)
	Update(ctx context.Context, tx *gorm.DB, owner model.Owner, dictID uuid.UUID, updates map[string]interface{}) error
}

type gormDictionaryRepository struct{}

func NewGormDictionaryRepository() DictionaryRepository {
	return &gormDictionaryRepository{}
}

func (r *gormDictionaryRepository) Create(ctx context.Context, tx *gorm.DB, dict *model.Dictionary) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(dict)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return model.ErrConflict
		}
		logger.Error("Error creating dictionary in DB",
			"error", result.Error,
			"owner", dict.Owner.String(),
			"name", dict.Name,
		)
		return fmt.Errorf("gormDictionaryRepository.Create: %w", result.Error)
	}
	return nil
}

// FindByID は有効な (active=true) 単語帳のみを対象とします
func (r *gormDictionaryRepository) FindByID(ctx context.Context, db *gorm.DB, owner model.Owner, dictID uuid.UUID) (*model.Dictionary, error) {
	logger := middleware.GetLogger(ctx)
	var dict model.Dictionary
	result := db.WithContext(ctx).Scopes(owner.Scope).
		Where("dictionary_id = ? AND active = ?", dictID, true).
		First(&dict)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding dictionary by ID in DB",
			"error", result.Error,
			"dictionary_id", dictID.String(),
		)
		return nil, fmt.Errorf("gormDictionaryRepository.FindByID: %w", result.Error)
	}
	return &dict, nil
}

func (r *gormDictionaryRepository) FindActiveByOwner(ctx context.Context, db *gorm.DB, owner model.Owner) ([]*model.Dictionary, error) {
	logger := middleware.GetLogger(ctx)
	var dicts []*model.Dictionary
	result := db.WithContext(ctx).Scopes(owner.Scope).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&dicts)
	if result.Error != nil {
		logger.Error("Error finding dictionaries by owner in DB",
			"error", result.Error,
			"owner", owner.String(),
		)
		return nil, fmt.Errorf("gormDictionaryRepository.FindActiveByOwner: %w", result.Error)
	}
	return dicts, nil
}

// CheckNameExists は同一所有者の有効な単語帳で名前の重複を確認します
func (r *gormDictionaryRepository) CheckNameExists(ctx context.Context, db *gorm.DB, owner model.Owner, name string, excludeDictID *uuid.UUID) (bool, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	query := db.WithContext(ctx).Model(&model.Dictionary{}).Scopes(owner.Scope).
		Where("name = ? AND active = ?", name, true)
	if excludeDictID != nil {
		query = query.Where("dictionary_id != ?", *excludeDictID)
	}
	result := query.Count(&count)
	if result.Error != nil {
		logger.Error("Error checking dictionary name existence in DB",
			"error", result.Error,
			"owner", owner.String(),
			"name", name,
		)
		return false, fmt.Errorf("gormDictionaryRepository.CheckNameExists: %w", result.Error)
	}
	return count > 0, nil
}

func (r *gormDictionaryRepository) CountActiveByOwner(ctx context.Context, db *gorm.DB, owner model.Owner, excludeDictID *uuid.UUID) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	query := db.WithContext(ctx).Model(&model.Dictionary{}).Scopes(owner.Scope).
		Where("active = ?", true)
	if excludeDictID != nil {
		query = query.Where("dictionary_id != ?", *excludeDictID)
	}
	result := query.Count(&count)
	if result.Error != nil {
		logger.Error("Error counting dictionaries by owner in DB",
			"error", result.Error,
			"owner", owner.String(),
		)
		return 0, fmt.Errorf("gormDictionaryRepository.CountActiveByOwner: %w", result.Error)
	}
	return count, nil
}

func (r *gormDictionaryRepository) Update(ctx context.Context, tx *gorm.DB, owner model.Owner, dictID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Dictionary{}).Scopes(owner.Scope).
		Where("dictionary_id = ?", dictID).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating dictionary in DB",
			"error", result.Error,
			"dictionary_id", dictID.String(),
		)
		return fmt.Errorf("gormDictionaryRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
