// internal/handlers/dictionary_handler_test.go
package handlers_test

import (
	"net/http"
	"testing"

	"go_5_flash_rounds/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DictionaryHandler_PostDictionary(t *testing.T) {
	session := "handler-dict-post-" + uuid.NewString()

	tests := []struct {
		name        string
		body        interface{}
		wantCode    int
		wantErrCode string
	}{
		{
			name:     "正常系: 単語帳の作成",
			body:     model.PostDictionaryRequest{Name: "英検3級"},
			wantCode: http.StatusCreated,
		},
		{
			name:        "異常系: 名前なし",
			body:        map[string]interface{}{},
			wantCode:    http.StatusBadRequest,
			wantErrCode: "VALIDATION_ERROR",
		},
		{
			name:        "異常系: 不正なJSON",
			body:        "{invalid json",
			wantCode:    http.StatusBadRequest,
			wantErrCode: "INVALID_REQUEST_BODY",
		},
		{
			name:        "異常系: 名前の重複",
			body:        model.PostDictionaryRequest{Name: "英検3級"},
			wantCode:    http.StatusConflict,
			wantErrCode: "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest(t, http.MethodPost, "/api/v1/dictionaries", tt.body, session)
			rr := executeRequest(req)
			require.Equal(t, tt.wantCode, rr.Code, "body: %s", rr.Body.String())

			if tt.wantErrCode != "" {
				var errResp model.APIErrorResponse
				decodeBody(t, rr, &errResp)
				assert.Equal(t, tt.wantErrCode, errResp.Error.Code)
				return
			}

			var dict model.DictionaryResponse
			decodeBody(t, rr, &dict)
			assert.NotEqual(t, uuid.Nil, dict.DictionaryID)
			assert.Equal(t, "英検3級", dict.Name)
		})
	}
}

func Test_DictionaryHandler_GetDictionaries(t *testing.T) {
	session := "handler-dict-list-" + uuid.NewString()

	// 単語帳なしの状態では空配列
	rr := executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries", nil, session))
	require.Equal(t, http.StatusOK, rr.Code)
	var dicts []model.DictionaryResponse
	decodeBody(t, rr, &dicts)
	assert.Empty(t, dicts)

	// 作成後は一覧に現れる
	rr = executeRequest(createRequest(t, http.MethodPost, "/api/v1/dictionaries",
		model.PostDictionaryRequest{Name: "toeic"}, session))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries", nil, session))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &dicts)
	require.Len(t, dicts, 1)
	assert.Equal(t, "toeic", dicts[0].Name)
	assert.Equal(t, int64(0), dicts[0].WordCount)

	// 別のセッションからは見えない
	rr = executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries", nil, "handler-dict-list-other-"+uuid.NewString()))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &dicts)
	assert.Empty(t, dicts)
}

func Test_DictionaryHandler_GetDictionary(t *testing.T) {
	session := "handler-dict-get-" + uuid.NewString()

	rr := executeRequest(createRequest(t, http.MethodPost, "/api/v1/dictionaries",
		model.PostDictionaryRequest{Name: "dict"}, session))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created model.DictionaryResponse
	decodeBody(t, rr, &created)

	t.Run("正常系: 取得できる", func(t *testing.T) {
		rr := executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries/"+created.DictionaryID.String(), nil, session))
		require.Equal(t, http.StatusOK, rr.Code)
		var got model.DictionaryResponse
		decodeBody(t, rr, &got)
		assert.Equal(t, created.DictionaryID, got.DictionaryID)
	})

	t.Run("異常系: 存在しないIDは404", func(t *testing.T) {
		rr := executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries/"+uuid.NewString(), nil, session))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("異常系: 不正なUUIDは400", func(t *testing.T) {
		rr := executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries/not-a-uuid", nil, session))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_DictionaryHandler_PatchDictionary(t *testing.T) {
	session := "handler-dict-patch-" + uuid.NewString()

	rr := executeRequest(createRequest(t, http.MethodPost, "/api/v1/dictionaries",
		model.PostDictionaryRequest{Name: "before"}, session))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created model.DictionaryResponse
	decodeBody(t, rr, &created)

	rr = executeRequest(createRequest(t, http.MethodPatch, "/api/v1/dictionaries/"+created.DictionaryID.String(),
		map[string]interface{}{"name": "after", "color": "#ff0000"}, session))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var updated model.Dictionary
	decodeBody(t, rr, &updated)
	assert.Equal(t, "after", updated.Name)
	require.NotNil(t, updated.Color)
	assert.Equal(t, "#ff0000", *updated.Color)
}

func Test_DictionaryHandler_DeleteDictionary(t *testing.T) {
	session := "handler-dict-delete-" + uuid.NewString()

	// 2つ作成して片方を削除する (最後の1つは削除できないため)
	rr := executeRequest(createRequest(t, http.MethodPost, "/api/v1/dictionaries",
		model.PostDictionaryRequest{Name: "keep"}, session))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = executeRequest(createRequest(t, http.MethodPost, "/api/v1/dictionaries",
		model.PostDictionaryRequest{Name: "target"}, session))
	require.Equal(t, http.StatusCreated, rr.Code)
	var target model.DictionaryResponse
	decodeBody(t, rr, &target)

	rr = executeRequest(createRequest(t, http.MethodDelete, "/api/v1/dictionaries/"+target.DictionaryID.String(), nil, session))
	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	// 削除後は取得できない
	rr = executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries/"+target.DictionaryID.String(), nil, session))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// 残った最後の1つは削除できない
	rr = executeRequest(createRequest(t, http.MethodGet, "/api/v1/dictionaries", nil, session))
	require.Equal(t, http.StatusOK, rr.Code)
	var dicts []model.DictionaryResponse
	decodeBody(t, rr, &dicts)
	require.Len(t, dicts, 1)

	rr = executeRequest(createRequest(t, http.MethodDelete, "/api/v1/dictionaries/"+dicts[0].DictionaryID.String(), nil, session))
	assert.Equal(t, http.StatusConflict, rr.Code)
}
