// internal/service/dictionary_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DictionaryService インターフェース
type DictionaryService interface {
	CreateDictionary(ctx context.Context, owner model.Owner, req *model.PostDictionaryRequest) (*model.Dictionary, error)
	ListDictionaries(ctx context.Context, owner model.Owner) ([]*model.DictionaryResponse, error)
	GetDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID) (*model.DictionaryResponse, error)
	UpdateDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID, req *model.PatchDictionaryRequest) (*model.Dictionary, error)
	RemoveDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID) error
}

type dictionaryService struct {
	db       *gorm.DB // トランザクション用にDB接続を持つ
	dictRepo repository.DictionaryRepository
	wordRepo repository.WordRepository
}

func NewDictionaryService(db *gorm.DB, dictRepo repository.DictionaryRepository, wordRepo repository.WordRepository) DictionaryService {
	return &dictionaryService{
		db:       db,
		dictRepo: dictRepo,
		wordRepo: wordRepo,
	}
}

func (s *dictionaryService) CreateDictionary(ctx context.Context, owner model.Owner, req *model.PostDictionaryRequest) (*model.Dictionary, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "単語帳の名前を入力してください。", "name", model.ErrInvalidInput)
	}

	var created *model.Dictionary

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 同一所有者内での名前の重複チェック
		exists, err := s.dictRepo.CheckNameExists(ctx, tx, owner, name, nil)
		if err != nil {
			logger.Error("Error checking dictionary name existence in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}
		if exists {
			return model.NewAppError("CONFLICT", "同じ名前の単語帳が既に存在します。", "name", model.ErrConflict)
		}

		// 2. 単語帳を作成
		dict := &model.Dictionary{
			DictionaryID: uuid.New(),
			Name:         name,
			Description:  req.Description,
			Color:        req.Color,
			Active:       true,
			Owner:        owner,
		}
		if err := s.dictRepo.Create(ctx, tx, dict); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("CONFLICT", "同じ名前の単語帳が既に存在します。", "name", model.ErrConflict)
			}
			logger.Error("Error creating dictionary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の作成に失敗しました。", "", model.ErrInternalServer)
		}

		created = dict
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Dictionary created", "dictionary_id", created.DictionaryID.String())
	return created, nil
}

// ListDictionaries は所有者の有効な単語帳を有効単語数付きで新しい順に返します
func (s *dictionaryService) ListDictionaries(ctx context.Context, owner model.Owner) ([]*model.DictionaryResponse, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	dicts, err := s.dictRepo.FindActiveByOwner(ctx, s.db, owner)
	if err != nil {
		logger.Error("Failed to find dictionaries from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳一覧の取得に失敗しました。", "", model.ErrInternalServer)
	}

	responses := make([]*model.DictionaryResponse, 0, len(dicts))
	for _, d := range dicts {
		count, err := s.wordRepo.CountActiveByDictionary(ctx, s.db, d.DictionaryID)
		if err != nil {
			logger.Error("Failed to count words for dictionary", "error", err, "dictionary_id", d.DictionaryID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語数の取得に失敗しました。", "", model.ErrInternalServer)
		}
		responses = append(responses, &model.DictionaryResponse{
			Dictionary: *d,
			WordCount:  count,
		})
	}

	logger.Info("Successfully listed dictionaries", "count", len(responses))
	return responses, nil
}

func (s *dictionaryService) GetDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID) (*model.DictionaryResponse, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "dictionary_id", dictID.String())

	dict, err := s.dictRepo.FindByID(ctx, s.db, owner, dictID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "", model.ErrNotFound)
		}
		logger.Error("Failed to find dictionary from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の取得に失敗しました。", "", model.ErrInternalServer)
	}

	count, err := s.wordRepo.CountActiveByDictionary(ctx, s.db, dict.DictionaryID)
	if err != nil {
		logger.Error("Failed to count words for dictionary", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語数の取得に失敗しました。", "", model.ErrInternalServer)
	}

	return &model.DictionaryResponse{Dictionary: *dict, WordCount: count}, nil
}

func (s *dictionaryService) UpdateDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID, req *model.PatchDictionaryRequest) (*model.Dictionary, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "dictionary_id", dictID.String())

	var updated *model.Dictionary

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dict, err := s.dictRepo.FindByID(ctx, tx, owner, dictID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding dictionary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		updates := map[string]interface{}{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return model.NewAppError("VALIDATION_ERROR", "単語帳の名前を入力してください。", "name", model.ErrInvalidInput)
			}
			// 自分自身を除いた名前の重複チェック
			exists, err := s.dictRepo.CheckNameExists(ctx, tx, owner, name, &dictID)
			if err != nil {
				logger.Error("Error checking dictionary name existence in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
			}
			if exists {
				return model.NewAppError("CONFLICT", "同じ名前の単語帳が既に存在します。", "name", model.ErrConflict)
			}
			updates["name"] = name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Color != nil {
			updates["color"] = *req.Color
		}

		if len(updates) > 0 {
			if err := s.dictRepo.Update(ctx, tx, owner, dictID, updates); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "", model.ErrNotFound)
				}
				logger.Error("Error updating dictionary in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の更新に失敗しました。", "", model.ErrInternalServer)
			}
		}

		// 更新後の値を詰め直して返す
		if name, ok := updates["name"].(string); ok {
			dict.Name = name
		}
		if req.Description != nil {
			dict.Description = req.Description
		}
		if req.Color != nil {
			dict.Color = req.Color
		}
		updated = dict
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Dictionary updated")
	return updated, nil
}

// RemoveDictionary は単語帳を論理削除します。
// 有効な単語が残っている場合、または所有者の最後の単語帳である場合は削除できない。
func (s *dictionaryService) RemoveDictionary(ctx context.Context, owner model.Owner, dictID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "dictionary_id", dictID.String())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.dictRepo.FindByID(ctx, tx, owner, dictID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding dictionary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		wordCount, err := s.wordRepo.CountActiveByDictionary(ctx, tx, dictID)
		if err != nil {
			logger.Error("Error counting words in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語数の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}
		if wordCount > 0 {
			return model.NewAppError("CONFLICT", "単語が残っている単語帳は削除できません。先に単語を移動または削除してください。", "", model.ErrConflict)
		}

		otherCount, err := s.dictRepo.CountActiveByOwner(ctx, tx, owner, &dictID)
		if err != nil {
			logger.Error("Error counting dictionaries in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}
		if otherCount == 0 {
			return model.NewAppError("CONFLICT", "最後の単語帳は削除できません。", "", model.ErrConflict)
		}

		if err := s.dictRepo.Update(ctx, tx, owner, dictID, map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}); err != nil {
			logger.Error("Error deactivating dictionary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の削除に失敗しました。", "", model.ErrInternalServer)
		}

		logger.Info("Dictionary removed (soft delete)")
		return nil
	})
}
