// internal/service/helpers_test.go
package service

import (
	"fmt"
	"testing"

	"go_5_flash_rounds/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリDBを作成します。
// 共有キャッシュ付きの名前付きDBを使うことで、コネクションプール越しでも
// 同じDBが見えるようにする。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect database for testing")

	err = db.AutoMigrate(
		&model.Dictionary{},
		&model.Word{},
		&model.Attempt{},
		&model.Round{},
		&model.RoundItem{},
	)
	require.NoError(t, err, "failed to migrate database for testing")
	return db
}

// seedDictionary はテスト用の単語帳を直接作成するヘルパー関数
func seedDictionary(t *testing.T, db *gorm.DB, owner model.Owner, name string) *model.Dictionary {
	t.Helper()
	dict := &model.Dictionary{
		DictionaryID: uuid.New(),
		Name:         name,
		Active:       true,
		Owner:        owner,
	}
	require.NoError(t, db.Create(dict).Error, "failed to seed dictionary")
	return dict
}

// seedWord はテスト用の単語を直接作成するヘルパー関数
func seedWord(t *testing.T, db *gorm.DB, owner model.Owner, dictID uuid.UUID, text string) *model.Word {
	t.Helper()
	word := &model.Word{
		WordID:       uuid.New(),
		DictionaryID: dictID,
		Text:         text,
		Tags:         []string{},
		Active:       true,
		Owner:        owner,
	}
	require.NoError(t, db.Create(word).Error, "failed to seed word")
	return word
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt64(v int64) *int64    { return &v }
func ptrString(v string) *string { return &v }
