// internal/service/word_service.go
package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WordService インターフェース
type WordService interface {
	AddWord(ctx context.Context, owner model.Owner, req *model.PostWordRequest) (*model.Word, error)
	ListWordsWithStats(ctx context.Context, owner model.Owner, dictID uuid.UUID) ([]*model.WordWithStatsResponse, error)
	ResetStats(ctx context.Context, owner model.Owner, req *model.ResetStatsRequest) error
	DeleteWord(ctx context.Context, owner model.Owner, wordID uuid.UUID) error
}

type wordService struct {
	db          *gorm.DB // トランザクション用にDB接続を持つ
	dictRepo    repository.DictionaryRepository
	wordRepo    repository.WordRepository
	attemptRepo repository.AttemptRepository
}

func NewWordService(db *gorm.DB, dictRepo repository.DictionaryRepository, wordRepo repository.WordRepository, attemptRepo repository.AttemptRepository) WordService {
	return &wordService{
		db:          db,
		dictRepo:    dictRepo,
		wordRepo:    wordRepo,
		attemptRepo: attemptRepo,
	}
}

// normalizeText は単語の正規化 (trim + lowercase) を行います
func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (s *wordService) AddWord(ctx context.Context, owner model.Owner, req *model.PostWordRequest) (*model.Word, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	text := normalizeText(req.Text)
	if text == "" {
		return nil, model.NewAppError("VALIDATION_ERROR", "単語を入力してください。", "text", model.ErrInvalidInput)
	}

	var created *model.Word

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 対象の単語帳が存在し、有効で、呼び出し元の所有であることを確認
		if _, err := s.dictRepo.FindByID(ctx, tx, owner, req.DictionaryID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "dictionary_id", model.ErrNotFound)
			}
			logger.Error("Error finding dictionary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		// 2. 同一単語帳内での重複チェック (正規化後のテキストで比較)
		exists, err := s.wordRepo.CheckTextExists(ctx, tx, owner, req.DictionaryID, text)
		if err != nil {
			logger.Error("Error checking word text existence in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}
		if exists {
			return model.NewAppError("CONFLICT", "同じ単語が既に登録されています。", "text", model.ErrConflict)
		}

		// 3. 単語を作成
		tags := req.Tags
		if tags == nil {
			tags = []string{}
		}
		word := &model.Word{
			WordID:       uuid.New(),
			DictionaryID: req.DictionaryID,
			Text:         text,
			Tags:         tags,
			GradeLevel:   req.GradeLevel,
			Active:       true,
			Owner:        owner,
		}
		if err := s.wordRepo.Create(ctx, tx, word); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("CONFLICT", "同じ単語が既に登録されています。", "text", model.ErrConflict)
			}
			logger.Error("Error creating word in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の作成に失敗しました。", "", model.ErrInternalServer)
		}

		created = word
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Word added", "word_id", created.WordID.String(), "text", created.Text)
	return created, nil
}

// ListWordsWithStats は単語帳内の有効な単語を統計付きで単語順に返します。
// 統計は reset_at より後に作成された試行のみから算出する。
func (s *wordService) ListWordsWithStats(ctx context.Context, owner model.Owner, dictID uuid.UUID) ([]*model.WordWithStatsResponse, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "dictionary_id", dictID.String())

	if _, err := s.dictRepo.FindByID(ctx, s.db, owner, dictID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "dictionary_id", model.ErrNotFound)
		}
		logger.Error("Failed to find dictionary from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
	}

	words, err := s.wordRepo.FindActiveByDictionary(ctx, s.db, owner, dictID)
	if err != nil {
		logger.Error("Failed to find words from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語一覧の取得に失敗しました。", "", model.ErrInternalServer)
	}

	responses := make([]*model.WordWithStatsResponse, 0, len(words))
	for _, w := range words {
		attempts, err := s.attemptRepo.FindByWordID(ctx, s.db, w.WordID)
		if err != nil {
			logger.Error("Failed to find attempts from repository", "error", err, "word_id", w.WordID.String())
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "試行履歴の取得に失敗しました。", "", model.ErrInternalServer)
		}
		responses = append(responses, &model.WordWithStatsResponse{
			Word:  *w,
			Stats: computeStats(attempts, w.ResetAt),
		})
	}

	logger.Info("Successfully listed words with stats", "count", len(responses))
	return responses, nil
}

// computeStats は試行履歴から単語の統計を算出するヘルパー関数。
// resetAt 以前 (同時刻含む) の試行は集計から除外する。
func computeStats(attempts []*model.Attempt, resetAt *time.Time) model.WordStats {
	filtered := make([]*model.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if resetAt != nil && !a.CreatedAt.After(*resetAt) {
			continue
		}
		filtered = append(filtered, a)
	}

	stats := model.WordStats{Total: len(filtered)}
	if len(filtered) == 0 {
		return stats
	}

	correctCount := 0
	allTimes := make([]int64, 0, len(filtered))
	var bestCorrect *int64
	for _, a := range filtered {
		allTimes = append(allTimes, a.TimeMs)
		if a.Correct {
			correctCount++
			if bestCorrect == nil || a.TimeMs < *bestCorrect {
				t := a.TimeMs
				bestCorrect = &t
			}
		}
	}

	rate := float64(correctCount) / float64(len(filtered))
	stats.CorrectRate = &rate
	stats.TypicalTimeMs = medianTimeMs(allTimes)
	stats.HighScoreMs = bestCorrect
	return stats
}

// medianTimeMs は時間リストの中央値を返します。偶数個の場合は中央2値の平均を四捨五入。
func medianTimeMs(times []int64) *int64 {
	if len(times) == 0 {
		return nil
	}
	sorted := make([]int64, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	var median int64
	if len(sorted)%2 == 0 {
		median = int64(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	} else {
		median = sorted[mid]
	}
	return &median
}

// ResetStats は単語の統計をソフトリセットします。
// word_id指定 / dictionary_id指定 / 指定なし(所有者の全単語) の3モードは排他。
func (s *wordService) ResetStats(ctx context.Context, owner model.Owner, req *model.ResetStatsRequest) error {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	if req.WordID != nil && req.DictionaryID != nil {
		return model.NewAppError("VALIDATION_ERROR", "word_id と dictionary_id は同時に指定できません。", "", model.ErrInvalidInput)
	}

	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch {
		case req.WordID != nil:
			if _, err := s.wordRepo.FindByID(ctx, tx, owner, *req.WordID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "word_id", model.ErrNotFound)
				}
				logger.Error("Error finding word in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の確認中にエラーが発生しました。", "", model.ErrInternalServer)
			}
			if err := s.wordRepo.Update(ctx, tx, owner, *req.WordID, map[string]interface{}{"reset_at": now}); err != nil {
				logger.Error("Error resetting word stats in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "統計のリセットに失敗しました。", "", model.ErrInternalServer)
			}
			logger.Info("Word stats reset", "word_id", req.WordID.String())

		case req.DictionaryID != nil:
			if _, err := s.dictRepo.FindByID(ctx, tx, owner, *req.DictionaryID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return model.NewAppError("NOT_FOUND", "単語帳が見つかりません。", "dictionary_id", model.ErrNotFound)
				}
				logger.Error("Error finding dictionary in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "単語帳の確認中にエラーが発生しました。", "", model.ErrInternalServer)
			}
			if err := s.wordRepo.ResetStats(ctx, tx, owner, req.DictionaryID, now); err != nil {
				logger.Error("Error resetting dictionary stats in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "統計のリセットに失敗しました。", "", model.ErrInternalServer)
			}
			logger.Info("Dictionary stats reset", "dictionary_id", req.DictionaryID.String())

		default:
			// 所有者の全単語をリセット
			if err := s.wordRepo.ResetStats(ctx, tx, owner, nil, now); err != nil {
				logger.Error("Error resetting all stats in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "統計のリセットに失敗しました。", "", model.ErrInternalServer)
			}
			logger.Info("All word stats reset")
		}
		return nil
	})
}

// DeleteWord は単語を論理削除し、その単語の試行履歴を物理削除します。
// 無効化→試行削除の2段階を同一トランザクションで行う。
func (s *wordService) DeleteWord(ctx context.Context, owner model.Owner, wordID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("owner", owner.String(), "word_id", wordID.String())

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.wordRepo.FindByID(ctx, tx, owner, wordID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "word_id", model.ErrNotFound)
			}
			logger.Error("Error finding word in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		// 1. 論理削除
		if err := s.wordRepo.Update(ctx, tx, owner, wordID, map[string]interface{}{"active": false}); err != nil {
			logger.Error("Error deactivating word in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の削除に失敗しました。", "", model.ErrInternalServer)
		}

		// 2. 試行履歴のクリーンアップ (復元不可)
		if err := s.attemptRepo.DeleteByWordID(ctx, tx, wordID); err != nil {
			logger.Error("Error purging attempts in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "試行履歴の削除に失敗しました。", "", model.ErrInternalServer)
		}

		logger.Info("Word deleted and attempts purged")
		return nil
	})
}
