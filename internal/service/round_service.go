// internal/service/round_service.go
package service

import (
	"context"
	"errors"
	"sync"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoundService インターフェース。ラウンドのライフサイクル
// (開始・試行ごとの進捗更新・完了判定・状態投影) を担当する。
type RoundService interface {
	StartRound(ctx context.Context, owner model.Owner, req *model.StartRoundRequest) (*model.Round, error)
	RecordRoundAttempt(ctx context.Context, owner model.Owner, roundID uuid.UUID, req *model.RoundAttemptRequest) error
	GetRoundState(ctx context.Context, owner model.Owner, roundID *uuid.UUID) (*model.RoundStateResponse, error)
}

type roundService struct {
	db          *gorm.DB
	roundRepo   repository.RoundRepository
	attemptRepo repository.AttemptRepository

	// ラウンドIDごとの直列化用ミューテックス。
	// 同一ラウンドへの並行した試行記録が read-modify-write で
	// 互いの更新を失わないよう、トランザクション全体を直列化する。
	roundLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewRoundService(db *gorm.DB, roundRepo repository.RoundRepository, attemptRepo repository.AttemptRepository) RoundService {
	return &roundService{
		db:          db,
		roundRepo:   roundRepo,
		attemptRepo: attemptRepo,
	}
}

func (s *roundService) lockRound(roundID uuid.UUID) *sync.Mutex {
	v, _ := s.roundLocks.LoadOrStore(roundID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// StartRound はラウンドを作成し、単語ごとの進捗アイテムを一括作成します。
// ラウンドと全アイテムの作成は同一トランザクション。
// 単語IDの所有チェックや重複チェックは行わない。
func (s *roundService) StartRound(ctx context.Context, owner model.Owner, req *model.StartRoundRequest) (*model.Round, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	if req.RepsPerWord < 1 {
		return nil, model.NewAppError("VALIDATION_ERROR", "単語あたりの目標正解数は1以上で指定してください。", "reps_per_word", model.ErrInvalidInput)
	}
	if req.MaxTimeMs != nil && *req.MaxTimeMs <= 0 {
		return nil, model.NewAppError("VALIDATION_ERROR", "制限時間は0より大きい値を指定してください。", "max_time_ms", model.ErrInvalidInput)
	}

	round := &model.Round{
		RoundID:     uuid.New(),
		Status:      model.RoundStatusActive,
		RepsPerWord: req.RepsPerWord,
		MaxTimeMs:   req.MaxTimeMs,
		Owner:       owner,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.roundRepo.CreateRound(ctx, tx, round); err != nil {
			logger.Error("Error creating round in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの作成に失敗しました。", "", model.ErrInternalServer)
		}

		items := make([]*model.RoundItem, 0, len(req.WordIDs))
		for _, wordID := range req.WordIDs {
			items = append(items, &model.RoundItem{
				RoundItemID: uuid.New(),
				RoundID:     round.RoundID,
				WordID:      wordID,
				RepsDone:    0,
				BestTimeMs:  nil,
				Solved:      false,
			})
		}
		if err := s.roundRepo.CreateItems(ctx, tx, items); err != nil {
			logger.Error("Error creating round items in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの作成に失敗しました。", "", model.ErrInternalServer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Round started",
		"round_id", round.RoundID.String(),
		"word_count", len(req.WordIDs),
		"reps_per_word", round.RepsPerWord,
	)
	return round, nil
}

// RecordRoundAttempt はラウンド内の試行を記録し、アイテムの進捗と
// ラウンドの完了状態を更新します。一連の更新は同一トランザクションで、
// 同一ラウンドに対してはミューテックスで直列化される。
func (s *roundService) RecordRoundAttempt(ctx context.Context, owner model.Owner, roundID uuid.UUID, req *model.RoundAttemptRequest) error {
	logger := middleware.GetLogger(ctx).With(
		"owner", owner.String(),
		"round_id", roundID.String(),
		"word_id", req.WordID.String(),
	)

	if req.TimeMs == nil || *req.TimeMs < 0 {
		return model.NewAppError("VALIDATION_ERROR", "回答時間は0以上で指定してください。", "time_ms", model.ErrInvalidInput)
	}
	if req.Correct == nil {
		return model.NewAppError("VALIDATION_ERROR", "回答の正誤は必須項目です。", "correct", model.ErrInvalidInput)
	}
	timeMs := *req.TimeMs
	correct := *req.Correct

	mu := s.lockRound(roundID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 試行を記録 (グローバルな試行履歴にも現れる)
		attempt := &model.Attempt{
			AttemptID: uuid.New(),
			WordID:    req.WordID,
			RoundID:   &roundID,
			Correct:   correct,
			TimeMs:    timeMs,
			Owner:     owner,
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			logger.Error("Error creating attempt in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "試行の記録に失敗しました。", "", model.ErrInternalServer)
		}

		// 2. ラウンドをロード
		round, err := s.roundRepo.FindRoundByID(ctx, tx, owner, roundID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "ラウンドが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding round in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		// 3. 対象単語のアイテムをロード (元の単語セットに含まれない単語はNotFound)
		item, err := s.roundRepo.FindItem(ctx, tx, roundID, req.WordID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "この単語はラウンドに含まれていません。", "word_id", model.ErrNotFound)
			}
			logger.Error("Error finding round item in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの確認中にエラーが発生しました。", "", model.ErrInternalServer)
		}

		// 4. 正解数の更新 (正解時のみ+1、減ることはない)
		if correct {
			item.RepsDone++
		}

		// 5. ベストタイムの更新。初回の試行時間がシードになり、以後は全試行のmin。
		if item.BestTimeMs == nil || timeMs < *item.BestTimeMs {
			item.BestTimeMs = &timeMs
		}

		// 6. 完了判定の再導出。目標正解数に達し、かつ制限時間が未設定か
		//    ベストタイムが制限時間内であれば solved。
		//    RepsDone と BestTimeMs はどちらも改善方向にしか動かないため、
		//    再導出で solved が false に戻ることはない。
		item.Solved = item.RepsDone >= round.RepsPerWord &&
			(round.MaxTimeMs == nil || (item.BestTimeMs != nil && *item.BestTimeMs <= *round.MaxTimeMs))

		// 7. アイテムを永続化
		if err := s.roundRepo.UpdateItem(ctx, tx, item); err != nil {
			logger.Error("Error updating round item in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の更新に失敗しました。", "", model.ErrInternalServer)
		}

		// 8. 全アイテムが solved ならラウンドを完了にする
		unsolved, err := s.roundRepo.CountUnsolved(ctx, tx, roundID)
		if err != nil {
			logger.Error("Error counting unsolved items in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "完了判定に失敗しました。", "", model.ErrInternalServer)
		}
		if unsolved == 0 && round.Status != model.RoundStatusDone {
			if err := s.roundRepo.UpdateRoundStatus(ctx, tx, roundID, model.RoundStatusDone); err != nil {
				logger.Error("Error marking round as done in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの完了処理に失敗しました。", "", model.ErrInternalServer)
			}
			logger.Info("Round completed", "reps_per_word", round.RepsPerWord)
		}

		logger.Debug("Round attempt recorded",
			"correct", correct,
			"time_ms", timeMs,
			"reps_done", item.RepsDone,
			"solved", item.Solved,
		)
		return nil
	})
}

// GetRoundState はラウンドの状態投影を返します。純粋な読み取りで副作用なし。
// roundID が nil、またはラウンドが存在しない/所有者が異なる場合は nil を返す。
func (s *roundService) GetRoundState(ctx context.Context, owner model.Owner, roundID *uuid.UUID) (*model.RoundStateResponse, error) {
	logger := middleware.GetLogger(ctx).With("owner", owner.String())

	if roundID == nil {
		return nil, nil
	}

	round, err := s.roundRepo.FindRoundByID(ctx, s.db, owner, *roundID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		logger.Error("Failed to find round from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの取得に失敗しました。", "", model.ErrInternalServer)
	}

	items, err := s.roundRepo.FindItemsByRound(ctx, s.db, *roundID)
	if err != nil {
		logger.Error("Failed to find round items from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ラウンドの取得に失敗しました。", "", model.ErrInternalServer)
	}

	solved := 0
	for _, item := range items {
		if item.Solved {
			solved++
		}
	}

	return &model.RoundStateResponse{
		Round:  round,
		Items:  items,
		Solved: solved,
		Total:  len(items),
	}, nil
}
