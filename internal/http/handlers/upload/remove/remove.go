// Package remove реализует HTTP-обработчик удаления изображения из облачного
// хранилища по публичному идентификатору.
package remove

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
)

// Uploader описывает интерфейс клиента облачного хранилища.
type Uploader interface {
	RemoveImage(ctx context.Context, publicID string) error
}

// Handler управляет HTTP-запросами на удаление изображений.
type Handler struct {
	log      *slog.Logger
	uploader Uploader
}

// New создает новый Handler с переданными логгером и клиентом хранилища.
func New(log *slog.Logger, uploader Uploader) *Handler {
	return &Handler{
		log:      log,
		uploader: uploader,
	}
}

// ServeHTTP godoc
// @Summary Удалить изображение
// @Description Удаляет изображение по публичному идентификатору (URL-encoded).
// @Tags Uploads
// @Produce  json
// @Security BearerAuth
// @Param publicID path string true "Публичный идентификатор изображения"
// @Success 200 {object} map[string]any "Изображение удалено"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка удаления"
// @Router /uploads/{publicID} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upload.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	publicID, err := url.PathUnescape(chi.URLParam(r, "publicID"))
	if err != nil || publicID == "" {
		log.Error("invalid public id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid public id"))
		return
	}

	if err := h.uploader.RemoveImage(r.Context(), publicID); err != nil {
		log.Error("failed to remove image", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove image"))
		return
	}

	log.Info("image removed", slog.String("public_id", publicID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"public_id": publicID,
	}))
}
