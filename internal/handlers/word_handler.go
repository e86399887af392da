// internal/handlers/word_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/service"
	"go_5_flash_rounds/internal/webutil"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type WordHandler struct {
	service service.WordService
	logger  *slog.Logger
}

func NewWordHandler(s service.WordService, logger *slog.Logger) *WordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WordHandler{
		service: s,
		logger:  logger,
	}
}

// PostWord は新しい単語リソースを作成するためのハンドラ
func (h *WordHandler) PostWord(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostWord"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	var req model.PostWordRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed", slog.Any("errors", validationErrors.Error()), slog.Any("request", req))
			firstErr := validationErrors[0]
			translatedMsg := firstErr.Translate(webutil.Trans)
			appErr := model.NewAppError("VALIDATION_ERROR", translatedMsg, firstErr.Field(), model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	word, err := h.service.AddWord(r.Context(), owner, &req)
	if err != nil {
		logger.Error("Error adding word in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Word added successfully", slog.String("word_id", word.WordID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, word, logger)
}

// GetWords は単語帳内の単語を統計付きで一覧取得するためのハンドラ。
// dictionary_id はクエリパラメータで指定する。
func (h *WordHandler) GetWords(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetWords"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	dictIDStr := r.URL.Query().Get("dictionary_id")
	dictID, err := uuid.Parse(dictIDStr)
	if err != nil {
		logger.Warn("Invalid dictionary ID in query", slog.String("dictionary_id_str", dictIDStr), slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_QUERY_PARAM", "dictionary_idの形式が正しくありません。", "dictionary_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("dictionary_id", dictID.String()))

	words, err := h.service.ListWordsWithStats(r.Context(), owner, dictID)
	if err != nil {
		logger.Error("Error listing words in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if words == nil {
		words = []*model.WordWithStatsResponse{}
	}
	logger.Info("Words listed successfully", slog.Int("count", len(words)))
	webutil.RespondWithJSON(w, http.StatusOK, words, logger)
}

// ResetStats は単語統計のソフトリセットを行うためのハンドラ
func (h *WordHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "ResetStats"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	var req model.ResetStatsRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.ResetStats(r.Context(), owner, &req); err != nil {
		logger.Error("Error resetting stats in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Stats reset successfully")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteWord は単語リソースを削除するためのハンドラ
func (h *WordHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteWord"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	wordID, appErr := parseUUIDParam(r, "word_id")
	if appErr != nil {
		logger.Warn("Invalid word ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("word_id", wordID.String()))

	if err := h.service.DeleteWord(r.Context(), owner, wordID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Word not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error deleting word in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Word deleted successfully")
	webutil.RespondWithJSON(w, http.StatusOK, model.DeleteWordResponse{Success: true}, logger)
}
