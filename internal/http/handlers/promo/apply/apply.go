// Package apply реализует HTTP-обработчик активации промокода текущим
// пользователем. Ошибки активации транслируются в коды ответов:
// неизвестный код — 404, повторная активация — 409, неактивный,
// просроченный или исчерпанный код — 422.
package apply

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
	"github.com/magabrotheeeer/vivu-travel/internal/services/subscription"
)

// Handler управляет HTTP-запросами на активацию промокодов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики активации промокода.
type Service interface {
	Redeem(ctx context.Context, userUID, rawCode string) (*subscription.Status, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать промокод
// @Description Активирует промокод для текущего пользователя и продлевает подписку.
// @Tags Promo
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyApplyPromo true "Промокод"
// @Success 200 {object} map[string]any "Обновленный статус подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 409 {object} response.ErrorResponse "Промокод уже активирован"
// @Failure 422 {object} response.ErrorResponse "Промокод недоступен для активации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /promo/apply [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.apply"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyApplyPromo
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	status, err := h.service.Redeem(r.Context(), userUID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrNotFound):
			log.Error("promo code not found", slog.String("code", req.Code))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("promo code not found"))
		case errors.Is(err, entitlement.ErrAlreadyUsed):
			log.Error("promo code already used", slog.String("code", req.Code))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("promo code already used"))
		case errors.Is(err, entitlement.ErrNotRedeemable):
			log.Error("promo code not redeemable", slog.String("code", req.Code))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("promo code is not redeemable"))
		case errors.Is(err, entitlement.ErrInvalidInput):
			log.Error("invalid promo code", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid promo code"))
		default:
			log.Error("failed to apply promo code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not apply promo code"))
		}
		return
	}

	log.Info("promo code applied", slog.String("user_uid", userUID), slog.String("code", req.Code))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": status,
	}))
}
