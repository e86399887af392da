// internal/service/attempt_service.go
package service

import (
	"context"
	"errors"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttemptService インターフェース (フリー練習の試行記録)
type AttemptService interface {
	RecordAttempt(ctx context.Context, owner model.Owner, req *model.PostAttemptRequest) (*model.Attempt, error)
}

type attemptService struct {
	db          *gorm.DB
	wordRepo    repository.WordRepository
	attemptRepo repository.AttemptRepository
}

func NewAttemptService(db *gorm.DB, wordRepo repository.WordRepository, attemptRepo repository.AttemptRepository) AttemptService {
	return &attemptService{
		db:          db,
		wordRepo:    wordRepo,
		attemptRepo: attemptRepo,
	}
}

// RecordAttempt はフリー練習の試行を1件追記します
func (s *attemptService) RecordAttempt(ctx context.Context, owner model.Owner, req *model.PostAttemptRequest) (*model.Attempt, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "word_id", req.WordID.String())

	if req.TimeMs == nil || *req.TimeMs < 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "回答時間は0以上で指定してください。", "time_ms", model.ErrInvalidInput)
	}
	if req.Correct == nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "回答の正誤は必須項目です。", "correct", model.ErrInvalidInput)
	}

	var created *model.Attempt

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.wordRepo.FindByID(ctx, tx, owner, req.WordID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "word_id", model.ErrNotFound)
			}
			logger.Error("Error finding word in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		attempt := &model.Attempt{
			AttemptID: uuid.New(),
			WordID:    req.WordID,
			Correct:   *req.Correct,
			TimeMs:    *req.TimeMs,
			Owner:     owner,
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			logger.Error("Error creating attempt in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "試行の記録に失敗しました。", "", model.ErrInternalServer)
		}

		created = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Attempt recorded", "attempt_id", created.AttemptID.String(), "correct", created.Correct)
	return created, nil
}
