// internal/webutil/validator.go
package webutil

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/ja" // 日本語ロケール
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja" // 日本語翻訳
)

// Validator はアプリケーション全体で共有されるバリデータインスタンスです。
var Validator *validator.Validate

// Trans はエラーメッセージを翻訳するためのトランスレータです。
var Trans ut.Translator

var fieldNameTranslations = map[string]string{
	"name":          "名前",
	"text":          "単語",
	"description":   "説明",
	"color":         "色",
	"dictionary_id": "単語帳ID",
	"word_id":       "単語ID",
	"word_ids":      "単語IDリスト",
	"correct":       "回答の正誤",
	"time_ms":       "回答時間",
	"reps_per_word": "単語あたりの目標正解数",
	"max_time_ms":   "制限時間",
	// ... 他のフィールドもここに追加 ...
}

func init() {
	// バリデータのインスタンスを生成
	Validator = validator.New()

	// JSONタグからフィールド名を取得するように設定
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 日本語のロケールとトランスレータを設定
	japanese := ja.New()
	uni := ut.New(japanese, japanese)
	var found bool
	Trans, found = uni.GetTranslator("ja")
	if !found {
		log.Fatal("translator not found")
	}

	// バリデータに日本語の翻訳を登録
	if err := ja_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	// 個別のエラーメッセージを上書き・カスタマイズ
	registerTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			// jsonタグ名をマップで日本語名に変換してメッセージを生成
			fieldName := fe.Field()
			translatedFieldName, ok := fieldNameTranslations[fieldName]
			if !ok {
				translatedFieldName = fieldName
			}
			t, _ := ut.T(tag, translatedFieldName)
			return t
		})
	}

	registerTranslation("required", "{0}は必須項目です。")

	// --- パラメータ付きタグ (min/max/gte/gt) ---
	registerParamTranslation := func(tag string, msg string) {
		Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			fieldName := fe.Field()
			translatedFieldName, ok := fieldNameTranslations[fieldName]
			if !ok {
				translatedFieldName = fieldName
			}
			t, _ := ut.T(tag, translatedFieldName, fe.Param())
			return t
		})
	}

	registerParamTranslation("min", "{0}は{1}文字以上で入力してください。")
	registerParamTranslation("max", "{0}は{1}文字以下で入力してください。")
	registerParamTranslation("gte", "{0}は{1}以上の値を指定してください。")
	registerParamTranslation("gt", "{0}は{1}より大きい値を指定してください。")
}
