// cmd/backfill/main.go
//
// 旧データの移行用ワンショットコマンド。何度実行しても安全 (冪等)。
//   - 所有者情報を持たないレコードにレガシー用のセッションIDを付与する
//   - 単語帳に属していない単語のために既定の単語帳を作成し、割り当てる
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"go_5_flash_rounds/internal/config"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/repository"
)

const (
	legacySessionID        = "legacy-data"
	defaultDictionaryName  = "My Dictionary"
	defaultDictionaryColor = "#3b82f6"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, db); err != nil {
		slog.Error("Backfill failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Println("Backfill finished")
}

func run(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 所有者なしレコードにレガシーセッションIDを付与
		for _, table := range []string{"dictionaries", "words", "attempts", "rounds"} {
			res := tx.Table(table).
				Where("user_id IS NULL AND session_id IS NULL").
				Update("session_id", legacySessionID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				slog.Info("Stamped ownerless rows", "table", table, "migrated", res.RowsAffected)
			} else {
				slog.Info("No ownerless rows, skipped", "table", table)
			}
		}

		// 2. 単語帳未所属の単語を所有者ごとに既定の単語帳へ割り当て
		type ownerKey struct {
			UserID    *string
			SessionID *string
		}
		var owners []ownerKey
		err := tx.Model(&model.Word{}).
			Distinct("user_id", "session_id").
			Where("dictionary_id = ?", uuid.Nil).
			Find(&owners).Error
		if err != nil {
			return err
		}

		for _, o := range owners {
			owner := model.Owner{UserID: o.UserID, SessionID: o.SessionID}
			if !owner.Valid() {
				continue
			}

			// 既定の単語帳があれば再利用する (冪等性のため)
			var dict model.Dictionary
			err := owner.Scope(tx).
				Where("name = ? AND active = ?", defaultDictionaryName, true).
				First(&dict).Error
			if err != nil {
				if err != gorm.ErrRecordNotFound {
					return err
				}
				color := defaultDictionaryColor
				dict = model.Dictionary{
					DictionaryID: uuid.New(),
					Name:         defaultDictionaryName,
					Color:        &color,
					Active:       true,
					Owner:        owner,
				}
				if err := tx.Create(&dict).Error; err != nil {
					return err
				}
				slog.Info("Created default dictionary", "owner", owner.String(), "dictionary_id", dict.DictionaryID.String())
			}

			res := owner.Scope(tx.Model(&model.Word{})).
				Where("dictionary_id = ?", uuid.Nil).
				Update("dictionary_id", dict.DictionaryID)
			if res.Error != nil {
				return res.Error
			}
			slog.Info("Assigned words to default dictionary", "owner", owner.String(), "migrated", res.RowsAffected)
		}
		if len(owners) == 0 {
			slog.Info("No dictionary-less words, skipped")
		}

		return nil
	})
}
