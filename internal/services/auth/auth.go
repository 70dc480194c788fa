// Package auth содержит логику бизнес-уровня для регистрации,
// входа по паролю и входа через Google, а также валидацию JWT.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/jwt"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/password"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// ErrInvalidCredentials неверная пара email-пароль или вход по паролю
// для пользователя, зарегистрированного через Google.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Длительность пробного окна при регистрации.
const trialWindow = 24 * time.Hour

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email или entitlement.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByUID возвращает пользователя по UID.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// GoogleClaims данные пользователя из проверенного ID-токена Google.
type GoogleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier проверяет подпись и аудиторию ID-токена Google.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error)
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	google   GoogleVerifier
	jwtMaker jwt.Maker
	log      *slog.Logger

	// now подменяется в тестах
	now func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, google GoogleVerifier, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		google:   google,
		jwtMaker: jwtMaker,
		log:      log,
		now:      time.Now,
	}
}

func newTrialUser(email, name string, now time.Time) models.User {
	return models.User{
		UID:          uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		Role:         "user", // дефолтная роль при регистрации
		AuthProvider: "local",
		Subscription: models.Subscription{
			Kind:      models.KindTrial,
			StartDate: now,
			EndDate:   now.Add(trialWindow),
			IsActive:  true,
		},
	}
}

// Register создает нового пользователя с хэшированием пароля и пробной подпиской.
// Пробный AI-поиск при этом ещё не израсходован.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", "", err
	}
	user := newTrialUser(req.Email, req.Name, s.now().UTC())
	user.PasswordHash = hashed

	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", "", err
	}
	s.log.Info("registered new user", slog.String("user_uid", uid))

	token, err := s.jwtMaker.GenerateToken(uid, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	return uid, token, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *Service) Login(ctx context.Context, req models.DummyLogin) (string, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	// У пользователей Google нет пароля, вход только через OAuth
	if user.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// LoginGoogle проверяет ID-токен Google и возвращает JWT. Если
// пользователь с таким email ещё не зарегистрирован, он создаётся
// с пробной подпиской и пустым хэшем пароля.
func (s *Service) LoginGoogle(ctx context.Context, req models.DummyGoogleLogin) (string, *models.User, error) {
	claims, err := s.google.Verify(ctx, req.Credential)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, entitlement.ErrNotFound) {
		newUser := newTrialUser(email, claims.Name, s.now().UTC())
		newUser.AuthProvider = "google"
		newUser.Avatar = claims.Picture
		if _, err := s.users.RegisterUser(ctx, newUser); err != nil {
			return "", nil, err
		}
		s.log.Info("registered new user via google", slog.String("user_uid", newUser.UID))
		user = &newUser
	} else if err != nil {
		return "", nil, err
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Me возвращает профиль текущего пользователя.
func (s *Service) Me(ctx context.Context, userUID string) (*models.User, error) {
	return s.users.GetUserByUID(ctx, userUID)
}

// ValidateToken проверяет JWT и возвращает данные пользователя из claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(token)
}
