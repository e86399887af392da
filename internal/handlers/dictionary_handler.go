// internal/handlers/dictionary_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"go_5_flash_rounds/internal/middleware"
	"go_5_flash_rounds/internal/model"
	"go_5_flash_rounds/internal/service"
	"go_5_flash_rounds/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type DictionaryHandler struct {
	service service.DictionaryService
	logger  *slog.Logger
}

func NewDictionaryHandler(s service.DictionaryService, logger *slog.Logger) *DictionaryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DictionaryHandler{
		service: s,
		logger:  logger,
	}
}

// PostDictionary は新しい単語帳リソースを作成するためのハンドラ
func (h *DictionaryHandler) PostDictionary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostDictionary"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	var req model.PostDictionaryRequest
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
			// 最初のエラーを代表としてクライアントに返す
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

	dict, err := h.service.CreateDictionary(r.Context(), owner, &req)
	if err != nil {
		logger.Error("Error creating dictionary in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Dictionary created successfully", slog.String("dictionary_id", dict.DictionaryID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, dict, logger)
}

// GetDictionaries は単語帳リソースの一覧を取得するためのハンドラ
func (h *DictionaryHandler) GetDictionaries(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetDictionaries"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	dicts, err := h.service.ListDictionaries(r.Context(), owner)
	if err != nil {
		logger.Error("Error listing dictionaries in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if dicts == nil {
		dicts = []*model.DictionaryResponse{}
	}
	logger.Info("Dictionaries listed successfully", slog.Int("count", len(dicts)))
	webutil.RespondWithJSON(w, http.StatusOK, dicts, logger)
}

// GetDictionary は特定の単語帳リソースを取得するためのハンドラ
func (h *DictionaryHandler) GetDictionary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetDictionary"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	dictID, appErr := parseUUIDParam(r, "dictionary_id")
	if appErr != nil {
		logger.Warn("Invalid dictionary ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}

	dict, err := h.service.GetDictionary(r.Context(), owner, dictID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Dictionary not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error getting dictionary from service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, dict, logger)
}

// PatchDictionary は単語帳リソースを部分更新するためのハンドラ
func (h *DictionaryHandler) PatchDictionary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchDictionary"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	dictID, appErr := parseUUIDParam(r, "dictionary_id")
	if appErr != nil {
		logger.Warn("Invalid dictionary ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("dictionary_id", dictID.String()))

	var req model.PatchDictionaryRequest
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

	dict, err := h.service.UpdateDictionary(r.Context(), owner, dictID, &req)
	if err != nil {
		logger.Error("Error updating dictionary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Dictionary updated successfully")
	webutil.RespondWithJSON(w, http.StatusOK, dict, logger)
}

// DeleteDictionary は単語帳リソースを削除するためのハンドラ
func (h *DictionaryHandler) DeleteDictionary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteDictionary"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	dictID, appErr := parseUUIDParam(r, "dictionary_id")
	if appErr != nil {
		logger.Warn("Invalid dictionary ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("dictionary_id", dictID.String()))

	if err := h.service.RemoveDictionary(r.Context(), owner, dictID); err != nil {
		logger.Error("Error removing dictionary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Dictionary removed successfully")
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"dictionary_id": dictID.String()}, logger)
}

// parseUUIDParam はURLパスパラメータをUUIDとしてパースするヘルパー関数
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, *model.AppError) {
	idStr := chi.URLParam(r, name)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_URL_PARAM", name+"の形式が正しくありません。", name, model.ErrInvalidInput)
	}
	return id, nil
}
