// Package promo содержит бизнес-логику администрирования промокодов:
// выпуск, список и отключение. Активацией кода пользователем занимается
// пакет subscription.
package promo

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Repository определяет методы для работы с промокодами в хранилище.
type Repository interface {
	// CreatePromoCode сохраняет новый промокод.
	CreatePromoCode(ctx context.Context, promo models.PromoCode) error
	// GetPromoCode возвращает промокод по каноническому коду.
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	// ListPromoCodes возвращает все промокоды.
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
	// DeactivatePromoCode отключает промокод.
	DeactivatePromoCode(ctx context.Context, code string) error
}

// Service реализует административные операции над промокодами.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Create выпускает новый промокод. Код нормализуется к верхнему регистру,
// для lifetime длительность игнорируется, для остальных видов
// по умолчанию один месяц.
func (s *Service) Create(ctx context.Context, adminUID string, req models.DummyCreatePromo) (*models.PromoCode, error) {
	code, err := entitlement.CanonicalCode(req.Code)
	if err != nil {
		return nil, err
	}

	durationMonths := req.DurationMonths
	if req.Kind == models.KindLifetime {
		durationMonths = 0
	} else if durationMonths == 0 {
		durationMonths = 1
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, entitlement.ErrInvalidInput
		}
		expiresAt = &parsed
	}

	promo := models.PromoCode{
		Code:           code,
		Kind:           req.Kind,
		DurationMonths: durationMonths,
		MaxUses:        req.MaxUses,
		ExpiresAt:      expiresAt,
		IsActive:       true,
		CreatedBy:      adminUID,
	}
	if err := s.repo.CreatePromoCode(ctx, promo); err != nil {
		return nil, err
	}
	s.log.Info("created promo code",
		slog.String("code", code), slog.String("kind", promo.Kind),
		slog.String("created_by", adminUID))
	return &promo, nil
}

// List возвращает все промокоды со счётчиками активаций.
func (s *Service) List(ctx context.Context) ([]*models.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

// Get возвращает промокод по коду.
func (s *Service) Get(ctx context.Context, rawCode string) (*models.PromoCode, error) {
	code, err := entitlement.CanonicalCode(rawCode)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPromoCode(ctx, code)
}

// Deactivate отключает промокод. Журнал активаций и уже выданные
// подписки при этом не затрагиваются.
func (s *Service) Deactivate(ctx context.Context, rawCode string) error {
	code, err := entitlement.CanonicalCode(rawCode)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivatePromoCode(ctx, code); err != nil {
		return err
	}
	s.log.Info("deactivated promo code", slog.String("code", code))
	return nil
}
