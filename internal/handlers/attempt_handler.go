// internal/handlers/attempt_handler.go
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
)

type AttemptHandler struct {
	service service.AttemptService
	logger  *slog.Logger
}

func NewAttemptHandler(s service.AttemptService, logger *slog.Logger) *AttemptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttemptHandler{
		service: s,
		logger:  logger,
	}
}

// PostAttempt はフリー練習の試行を記録するためのハンドラ
func (h *AttemptHandler) PostAttempt(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAttempt"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	var req model.PostAttemptRequest
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

	attempt, err := h.service.RecordAttempt(r.Context(), owner, &req)
	if err != nil {
		logger.Error("Error recording attempt in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Attempt recorded successfully", slog.String("attempt_id", attempt.AttemptID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.PostAttemptResponse{AttemptID: attempt.AttemptID}, logger)
}
