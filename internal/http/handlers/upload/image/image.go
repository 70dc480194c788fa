// Package image реализует HTTP-обработчики загрузки изображений в облачное
// хранилище: одиночную и пакетную (до 10 файлов, каждый до 5 МБ, только image/*).
package image

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/uploads"
)

// Лимиты загрузки.
const (
	maxFileSize  = 5 << 20 // 5 МБ на файл
	maxFileCount = 10
)

// Uploader описывает интерфейс клиента облачного хранилища.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader) (*uploads.UploadResult, error)
}

// Handler управляет HTTP-запросами на загрузку изображений.
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

func validateImage(header *multipart.FileHeader) string {
	if header.Size > maxFileSize {
		return "file exceeds 5MB limit"
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "only image files are allowed"
	}
	return ""
}

// Single godoc
// @Summary Загрузить изображение
// @Description Загружает одно изображение (до 5 МБ, только image/*).
// @Tags Uploads
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param image formData file true "Файл изображения"
// @Success 200 {object} map[string]any "Результат загрузки"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует или не подходит"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка загрузки"
// @Router /uploads/image [post]
func (h *Handler) Single(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upload.image"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	file, header, err := r.FormFile("image")
	if err != nil {
		log.Error("failed to read uploaded file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("image file is required"))
		return
	}
	defer file.Close()

	if msg := validateImage(header); msg != "" {
		log.Error("rejected uploaded file", slog.String("reason", msg))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(msg))
		return
	}

	result, err := h.uploader.UploadImage(r.Context(), file)
	if err != nil {
		log.Error("failed to upload image", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not upload image"))
		return
	}

	log.Info("image uploaded", slog.String("public_id", result.PublicID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"image": result,
	}))
}

// Multi godoc
// @Summary Загрузить несколько изображений
// @Description Загружает до 10 изображений за один запрос.
// @Tags Uploads
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param images formData file true "Файлы изображений"
// @Success 200 {object} map[string]any "Результаты загрузки"
// @Failure 400 {object} response.ErrorResponse "Файлы отсутствуют или не подходят"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка загрузки"
// @Router /uploads/images [post]
func (h *Handler) Multi(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upload.images"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxFileCount * maxFileSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		log.Error("no image files in request")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("image files are required"))
		return
	}
	if len(headers) > maxFileCount {
		log.Error("too many files", slog.Int("count", len(headers)))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("at most 10 files per request"))
		return
	}

	results := make([]*uploads.UploadResult, 0, len(headers))
	for _, header := range headers {
		if msg := validateImage(header); msg != "" {
			log.Error("rejected uploaded file", slog.String("file", header.Filename), slog.String("reason", msg))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(msg))
			return
		}

		file, err := header.Open()
		if err != nil {
			log.Error("failed to open uploaded file", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read uploaded file"))
			return
		}

		result, err := h.uploader.UploadImage(r.Context(), file)
		file.Close()
		if err != nil {
			log.Error("failed to upload image", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not upload image"))
			return
		}
		results = append(results, result)
	}

	log.Info("images uploaded", slog.Int("count", len(results)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"images": results,
	}))
}
