// Package list реализует HTTP-обработчик выборки блог-постов с фильтрами
// по направлению, тегу, автору и признаку избранного.
package list

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

// Handler управляет HTTP-запросами на выборку постов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выборки постов.
type Service interface {
	List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список блог-постов
// @Description Возвращает опубликованные посты с фильтрами и пагинацией.
// @Tags Blog
// @Produce  json
// @Param destination query string false "Фильтр по направлению"
// @Param tag query string false "Фильтр по тегу"
// @Param featured query bool false "Только избранные"
// @Param author query string false "Посты автора"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список постов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /blogs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blog.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := models.BlogFilter{
		Destination: r.URL.Query().Get("destination"),
		Tag:         r.URL.Query().Get("tag"),
		AuthorUID:   r.URL.Query().Get("author"),
	}
	if v := r.URL.Query().Get("featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list blog posts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list blog posts"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"posts": posts,
	}))
}
