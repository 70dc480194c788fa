// Package google реализует HTTP-обработчик входа через Google ID-токен.
package google

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/vivu-travel/internal/http/response"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/sl"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Handler управляет HTTP-запросами на вход через Google.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики входа через Google.
type Service interface {
	LoginGoogle(ctx context.Context, req models.DummyGoogleLogin) (string, *models.User, error)
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
// @Summary Войти через Google
// @Description Проверяет ID-токен Google, при первом входе создает пользователя
// с пробной подпиской, возвращает JWT-токен и профиль.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyGoogleLogin true "ID-токен Google"
// @Success 200 {object} map[string]any "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидный ID-токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/google [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyGoogleLogin
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

	token, user, err := h.service.LoginGoogle(r.Context(), req)
	if err != nil {
		log.Error("failed to login with google", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid google id token"))
		return
	}

	log.Info("user logged in with google", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
