// Package paymentwebhook реализует HTTP-обработчик вебхука платёжного
// провайдера. Подпись тела проверяется сервисом, невалидная подпись
// отклоняется со статусом 401. Обработанный ранее платеж не меняется
// повторно, провайдер всегда получает 200 на известные статусы.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/paymentprovider"
)

// Service описывает интерфейс бизнес-логики обработки вебхука.
type Service interface {
	HandleWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error
}

// Handler управляет HTTP-запросами вебхука провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает уведомление о смене статуса платежа, проверяет HMAC-подпись.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body paymentprovider.WebhookPayload true "Уведомление провайдера"
// @Success 200 {object} map[string]any "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	var payload paymentprovider.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error("failed to decode webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook payload"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), &payload); err != nil {
		if errors.Is(err, paymentprovider.ErrBadSignature) {
			log.Error("invalid webhook signature")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Error("failed to process webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process webhook"))
		return
	}

	log.Info("webhook processed", slog.String("status", payload.Data.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"received": true,
	}))
}
