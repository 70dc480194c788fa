// Package feed реализует HTTP-обработчик ленты постов, ранжированной
// по вовлеченности читателей.
package feed

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Handler управляет HTTP-запросами на получение ленты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики ленты.
type Service interface {
	Feed(ctx context.Context, limit, offset int) ([]*models.BlogPost, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Лента блог-постов
// @Description Возвращает посты, отсортированные по вовлеченности читателей.
// @Tags Blog
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Лента постов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /blogs/feed [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blog.feed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.service.Feed(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to load blog feed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load blog feed"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"posts": posts,
	}))
}
