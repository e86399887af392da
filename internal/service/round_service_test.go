// internal/service/round_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRoundTestService(t *testing.T) (RoundService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewRoundService(db, repository.NewGormRoundRepository(), repository.NewGormAttemptRepository()), db
}

// recordAttempt はテスト用にラウンド試行を1件記録するヘルパー関数
func recordAttempt(t *testing.T, svc RoundService, owner model.Owner, roundID uuid.UUID, wordID uuid.UUID, correct bool, timeMs int64) {
	t.Helper()
	err := svc.RecordRoundAttempt(context.Background(), owner, roundID, &model.RoundAttemptRequest{
		WordID:  wordID,
		Correct: ptrBool(correct),
		TimeMs:  ptrInt64(timeMs),
	})
	require.NoError(t, err)
}

func Test_roundService_StartRound(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-start")

	tests := []struct {
		name    string
		req     *model.StartRoundRequest
		wantErr error
	}{
		{
			name: "正常系: 2単語のラウンド開始",
			req: &model.StartRoundRequest{
				WordIDs:     []uuid.UUID{uuid.New(), uuid.New()},
				RepsPerWord: 3,
			},
			wantErr: nil,
		},
		{
			name: "正常系: 単語なしでも開始できる",
			req: &model.StartRoundRequest{
				WordIDs:     []uuid.UUID{},
				RepsPerWord: 1,
			},
			wantErr: nil,
		},
		{
			name: "正常系: 制限時間付き",
			req: &model.StartRoundRequest{
				WordIDs:     []uuid.UUID{uuid.New()},
				RepsPerWord: 2,
				MaxTimeMs:   ptrInt64(2000),
			},
			wantErr: nil,
		},
		{
			name: "異常系: 目標正解数が0",
			req: &model.StartRoundRequest{
				WordIDs:     []uuid.UUID{uuid.New()},
				RepsPerWord: 0,
			},
			wantErr: model.ErrInvalidInput,
		},
		{
			name: "異常系: 制限時間が0",
			req: &model.StartRoundRequest{
				WordIDs:     []uuid.UUID{uuid.New()},
				RepsPerWord: 1,
				MaxTimeMs:   ptrInt64(0),
			},
			wantErr: model.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newRoundTestService(t)

			round, err := svc.StartRound(ctx, owner, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "expected error %v, got %v", tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, round)
			assert.Equal(t, model.RoundStatusActive, round.Status)
			assert.Equal(t, tt.req.RepsPerWord, round.RepsPerWord)

			state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
			require.NoError(t, err)
			require.NotNil(t, state)
			assert.Equal(t, len(tt.req.WordIDs), state.Total)
			assert.Equal(t, 0, state.Solved)
			for _, item := range state.Items {
				assert.Equal(t, 0, item.RepsDone)
				assert.Nil(t, item.BestTimeMs)
				assert.False(t, item.Solved)
			}
		})
	}
}

func Test_roundService_RecordRoundAttempt_進捗とベストタイム(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-progress")
	svc, db := newRoundTestService(t)

	wordID := uuid.New()
	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{wordID},
		RepsPerWord: 2,
	})
	require.NoError(t, err)

	// 不正解は正解数を増やさないが、ベストタイムには反映される
	recordAttempt(t, svc, owner, round.RoundID, wordID, false, 300)
	state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 0, state.Items[0].RepsDone)
	require.NotNil(t, state.Items[0].BestTimeMs)
	assert.Equal(t, int64(300), *state.Items[0].BestTimeMs)
	assert.False(t, state.Items[0].Solved)

	// 正解で正解数+1。遅い試行はベストタイムを更新しない
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 500)
	state, err = svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Items[0].RepsDone)
	assert.Equal(t, int64(300), *state.Items[0].BestTimeMs)
	assert.False(t, state.Items[0].Solved)
	assert.Equal(t, model.RoundStatusActive, state.Round.Status)

	// 2回目の正解で目標達成。制限時間なしなので solved になりラウンド完了
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 400)
	state, err = svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Items[0].RepsDone)
	assert.Equal(t, int64(300), *state.Items[0].BestTimeMs)
	assert.True(t, state.Items[0].Solved)
	assert.Equal(t, 1, state.Solved)
	assert.Equal(t, model.RoundStatusDone, state.Round.Status)

	// ラウンド内の試行はラウンドIDを持つ履歴として残る
	var count int64
	require.NoError(t, db.Model(&model.Attempt{}).Where("round_id = ?", round.RoundID).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func Test_roundService_RecordRoundAttempt_制限時間(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-maxtime")
	svc, _ := newRoundTestService(t)

	wordID := uuid.New()
	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{wordID},
		RepsPerWord: 3,
		MaxTimeMs:   ptrInt64(2000),
	})
	require.NoError(t, err)

	// 目標正解数に達してもベストタイムが制限時間を超えていれば solved にならない
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 2500)
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 2500)
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 2500)

	state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Items[0].RepsDone)
	assert.Equal(t, int64(2500), *state.Items[0].BestTimeMs)
	assert.False(t, state.Items[0].Solved)
	assert.Equal(t, model.RoundStatusActive, state.Round.Status)

	// 制限時間内の試行でベストタイムが更新され、solved に切り替わる
	recordAttempt(t, svc, owner, round.RoundID, wordID, true, 1800)
	state, err = svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 4, state.Items[0].RepsDone)
	assert.Equal(t, int64(1800), *state.Items[0].BestTimeMs)
	assert.True(t, state.Items[0].Solved)
	assert.Equal(t, model.RoundStatusDone, state.Round.Status)
}

func Test_roundService_RecordRoundAttempt_全単語完了でラウンド完了(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-done")
	svc, _ := newRoundTestService(t)

	wordA := uuid.New()
	wordB := uuid.New()
	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{wordA, wordB},
		RepsPerWord: 2,
	})
	require.NoError(t, err)

	recordAttempt(t, svc, owner, round.RoundID, wordA, true, 100)
	recordAttempt(t, svc, owner, round.RoundID, wordA, true, 100)
	recordAttempt(t, svc, owner, round.RoundID, wordB, true, 100)

	// 片方だけ solved ではラウンドはまだ完了しない
	state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Solved)
	assert.Equal(t, 2, state.Total)
	assert.Equal(t, model.RoundStatusActive, state.Round.Status)

	recordAttempt(t, svc, owner, round.RoundID, wordB, true, 100)
	state, err = svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Solved)
	assert.Equal(t, model.RoundStatusDone, state.Round.Status)
}

func Test_roundService_RecordRoundAttempt_異常系(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-errors")
	svc, _ := newRoundTestService(t)

	wordID := uuid.New()
	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{wordID},
		RepsPerWord: 1,
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		owner   model.Owner
		roundID uuid.UUID
		req     *model.RoundAttemptRequest
		wantErr error
	}{
		{
			name:    "異常系: 存在しないラウンド",
			owner:   owner,
			roundID: uuid.New(),
			req:     &model.RoundAttemptRequest{WordID: wordID, Correct: ptrBool(true), TimeMs: ptrInt64(100)},
			wantErr: model.ErrNotFound,
		},
		{
			name:    "異常系: 他の所有者のラウンド",
			owner:   model.AnonymousOwner("session-other"),
			roundID: round.RoundID,
			req:     &model.RoundAttemptRequest{WordID: wordID, Correct: ptrBool(true), TimeMs: ptrInt64(100)},
			wantErr: model.ErrNotFound,
		},
		{
			name:    "異常系: ラウンドに含まれない単語",
			owner:   owner,
			roundID: round.RoundID,
			req:     &model.RoundAttemptRequest{WordID: uuid.New(), Correct: ptrBool(true), TimeMs: ptrInt64(100)},
			wantErr: model.ErrNotFound,
		},
		{
			name:    "異常系: 回答時間が負",
			owner:   owner,
			roundID: round.RoundID,
			req:     &model.RoundAttemptRequest{WordID: wordID, Correct: ptrBool(true), TimeMs: ptrInt64(-1)},
			wantErr: model.ErrInvalidInput,
		},
		{
			name:    "異常系: 回答時間なし",
			owner:   owner,
			roundID: round.RoundID,
			req:     &model.RoundAttemptRequest{WordID: wordID, Correct: ptrBool(true)},
			wantErr: model.ErrInvalidInput,
		},
		{
			name:    "異常系: 正誤なし",
			owner:   owner,
			roundID: round.RoundID,
			req:     &model.RoundAttemptRequest{WordID: wordID, TimeMs: ptrInt64(100)},
			wantErr: model.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RecordRoundAttempt(ctx, tt.owner, tt.roundID, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected error %v, got %v", tt.wantErr, err)
		})
	}

	// 失敗した試行でラウンドの状態が変わっていないこと
	state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Items[0].RepsDone)
	assert.Equal(t, model.RoundStatusActive, state.Round.Status)
}

func Test_roundService_RecordRoundAttempt_並行実行(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-concurrent")
	svc, _ := newRoundTestService(t)

	wordID := uuid.New()
	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{wordID},
		RepsPerWord: 40,
	})
	require.NoError(t, err)

	// 8 goroutine x 5 回の正解を並行に記録しても更新が失われないこと
	const workers = 8
	const perWorker = 5
	errCh := make(chan error, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				errCh <- svc.RecordRoundAttempt(ctx, owner, round.RoundID, &model.RoundAttemptRequest{
					WordID:  wordID,
					Correct: ptrBool(true),
					TimeMs:  ptrInt64(150),
				})
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, state.Items[0].RepsDone)
	assert.True(t, state.Items[0].Solved)
	assert.Equal(t, model.RoundStatusDone, state.Round.Status)
}

func Test_roundService_GetRoundState(t *testing.T) {
	ctx := context.Background()
	owner := model.AnonymousOwner("session-round-state")
	svc, _ := newRoundTestService(t)

	round, err := svc.StartRound(ctx, owner, &model.StartRoundRequest{
		WordIDs:     []uuid.UUID{uuid.New()},
		RepsPerWord: 1,
	})
	require.NoError(t, err)

	t.Run("正常系: ラウンドIDなしはnilを返す", func(t *testing.T) {
		state, err := svc.GetRoundState(ctx, owner, nil)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("正常系: 存在しないラウンドはnilを返す", func(t *testing.T) {
		unknownID := uuid.New()
		state, err := svc.GetRoundState(ctx, owner, &unknownID)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("正常系: 他の所有者のラウンドはnilを返す", func(t *testing.T) {
		other := model.AnonymousOwner("session-someone-else")
		state, err := svc.GetRoundState(ctx, other, &round.RoundID)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("正常系: 自分のラウンドは投影を返す", func(t *testing.T) {
		state, err := svc.GetRoundState(ctx, owner, &round.RoundID)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, round.RoundID, state.Round.RoundID)
		assert.Equal(t, 1, state.Total)
	})
}
