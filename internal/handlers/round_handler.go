// internal/handlers/round_handler.go
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

type RoundHandler struct {
	service service.RoundService
	logger  *slog.Logger
}

func NewRoundHandler(s service.RoundService, logger *slog.Logger) *RoundHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoundHandler{
		service: s,
		logger:  logger,
	}
}

// PostRound は新しいラウンドを開始するためのハンドラ
func (h *RoundHandler) PostRound(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostRound"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	var req model.StartRoundRequest
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

	round, err := h.service.StartRound(r.Context(), owner, &req)
	if err != nil {
		logger.Error("Error starting round in service", slog.Any("error", err), slog.Any("request", req))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Round started successfully", slog.String("round_id", round.RoundID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, model.StartRoundResponse{RoundID: round.RoundID}, logger)
}

// PostRoundAttempt はラウンド内の試行を記録するためのハンドラ
func (h *RoundHandler) PostRoundAttempt(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostRoundAttempt"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	roundID, appErr := parseUUIDParam(r, "round_id")
	if appErr != nil {
		logger.Warn("Invalid round ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("round_id", roundID.String()))

	var req model.RoundAttemptRequest
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

	if err := h.service.RecordRoundAttempt(r.Context(), owner, roundID, &req); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Info("Round or item not found in service", slog.Any("error", err))
		} else {
			logger.Error("Error recording round attempt in service", slog.Any("error", err))
		}
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Round attempt recorded successfully")
	w.WriteHeader(http.StatusNoContent)
}

// GetRound はラウンドの状態投影を取得するためのハンドラ。
// 存在しない/所有者が異なるラウンドは null を返す (404にはしない)。
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetRound"))

	owner, err := middleware.GetOwnerFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		webutil.HandleError(w, logger, err)
		return
	}
	logger = logger.With(slog.String("owner", owner.String()))

	roundID, appErr := parseUUIDParam(r, "round_id")
	if appErr != nil {
		logger.Warn("Invalid round ID format in URL", slog.String("error", appErr.Error()))
		webutil.HandleError(w, logger, appErr)
		return
	}

	state, err := h.service.GetRoundState(r.Context(), owner, &roundID)
	if err != nil {
		logger.Error("Error getting round state from service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	// stateがnilの場合はJSONの null がそのまま返る
	webutil.RespondWithJSON(w, http.StatusOK, state, logger)
}
