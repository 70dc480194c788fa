// Package comment реализует HTTP-обработчики комментариев блог-поста:
// добавление комментария и получение списка.
package comment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Handler управляет HTTP-запросами комментариев.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики комментариев.
type Service interface {
	Comment(ctx context.Context, postID int, userUID string, req models.DummyBlogComment) (int, error)
	Comments(ctx context.Context, postID int) ([]*models.BlogComment, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create godoc
// @Summary Добавить комментарий
// @Description Добавляет комментарий текущего пользователя к посту.
// @Tags Blog
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID поста"
// @Param request body models.DummyBlogComment true "Текст комментария"
// @Success 200 {object} map[string]any "ID комментария"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пост не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /blogs/{id}/comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blog.comment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid post id"))
		return
	}

	var req models.DummyBlogComment
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

	commentID, err := h.service.Comment(r.Context(), id, userUID, req)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			log.Error("blog post not found", slog.Int("post_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("blog post not found"))
			return
		}
		log.Error("failed to add comment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add comment"))
		return
	}

	log.Info("comment added", slog.Int("post_id", id), slog.Int("comment_id", commentID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"comment_id": commentID,
	}))
}

// List godoc
// @Summary Комментарии поста
// @Description Возвращает комментарии поста от старых к новым.
// @Tags Blog
// @Produce  json
// @Param id path int true "ID поста"
// @Success 200 {object} map[string]any "Комментарии"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /blogs/{id}/comments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.blog.comment.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid post id"))
		return
	}

	comments, err := h.service.Comments(r.Context(), id)
	if err != nil {
		log.Error("failed to list comments", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list comments"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"comments": comments,
	}))
}
