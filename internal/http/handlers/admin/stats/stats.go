// Package stats содержит хендлер административной сводки.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/services/admin"
)

// Service определяет контракт сервиса административных сводок.
type Service interface {
	Stats(ctx context.Context) (*admin.Stats, error)
}

// Handler обрабатывает запрос сводки для администратора.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает сводку: пользователи, выручка, промокоды.
// @Summary Административная сводка
// @Description Возвращает количество пользователей, выручку и использование промокодов
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	result, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error("failed to collect stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("stats collected",
		slog.Int("total_users", result.TotalUsers),
		slog.Int("paid_users", result.PaidUsers))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stats": result,
	}))
}
