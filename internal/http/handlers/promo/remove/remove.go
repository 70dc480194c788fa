// Package remove реализует HTTP-обработчик деактивации промокода.
// Код не удаляется физически, журнал активаций сохраняется.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
)

// Handler управляет HTTP-запросами на деактивацию промокодов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики деактивации промокода.
type Service interface {
	Deactivate(ctx context.Context, rawCode string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Деактивировать промокод
// @Description Отключает промокод для дальнейших активаций. Доступно только администраторам.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param code path string true "Промокод"
// @Success 200 {object} map[string]any "Промокод деактивирован"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/promo/{code} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := chi.URLParam(r, "code")

	if err := h.service.Deactivate(r.Context(), code); err != nil {
		switch {
		case errors.Is(err, entitlement.ErrNotFound):
			log.Error("promo code not found", slog.String("code", code))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("promo code not found"))
		case errors.Is(err, entitlement.ErrInvalidInput):
			log.Error("invalid promo code", slog.String("code", code))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid promo code"))
		default:
			log.Error("failed to deactivate promo code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not deactivate promo code"))
		}
		return
	}

	log.Info("promo code deactivated", slog.String("code", code))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"code": code,
	}))
}
