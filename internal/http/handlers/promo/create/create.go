// Package create реализует HTTP-обработчик создания промокода администратором.
package create

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
)

// Handler управляет HTTP-запросами на создание промокодов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания промокода.
type Service interface {
	Create(ctx context.Context, adminUID string, req models.DummyCreatePromo) (*models.PromoCode, error)
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
// @Summary Создать промокод
// @Description Создает новый промокод. Доступно только администраторам.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyCreatePromo true "Данные промокода"
// @Success 200 {object} map[string]any "Созданный промокод"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или данные"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 409 {object} response.ErrorResponse "Промокод уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/promo [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCreatePromo
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

	adminUID, _ := r.Context().Value(middlewarectx.UserUID).(string)

	promo, err := h.service.Create(r.Context(), adminUID, req)
	if err != nil {
		switch {
		case errors.Is(err, entitlement.ErrInvalidInput):
			log.Error("invalid promo data", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid promo data"))
		case errors.Is(err, entitlement.ErrAlreadyUsed):
			log.Error("promo code already exists", slog.String("code", req.Code))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("promo code already exists"))
		default:
			log.Error("failed to create promo code", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create promo code"))
		}
		return
	}

	log.Info("promo code created", slog.String("code", promo.Code))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"promo": promo,
	}))
}
