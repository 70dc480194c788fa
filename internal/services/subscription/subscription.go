// Package subscription содержит бизнес-логику управления подпиской
// пользователя: статус, списание пробного поиска и активацию промокодов.
// Изменения состояния сохраняются с оптимистической блокировкой, при
// конфликте версий операция повторяется один раз с заново прочитанным
// состоянием.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// GetUserByUID возвращает пользователя вместе с журналом активированных кодов.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	// SaveUserSubscription сохраняет подписку и счётчики с проверкой версии.
	// При несовпадении версии возвращает entitlement.ErrConcurrencyConflict.
	SaveUserSubscription(ctx context.Context, user *models.User, redeemed *models.RedeemedCode) error
}

// PromoRepository определяет методы для работы с промокодами в хранилище.
type PromoRepository interface {
	// GetPromoCode возвращает промокод по каноническому коду.
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	// RedeemPromoCode условно инкрементирует счётчик активаций вместе
	// с записью в журнал. Возвращает entitlement.ErrNotRedeemable или
	// entitlement.ErrAlreadyUsed.
	RedeemPromoCode(ctx context.Context, code, userUID string, now time.Time) error
	// ReleasePromoCode компенсирует активацию после неудачного сохранения.
	ReleasePromoCode(ctx context.Context, code, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Publisher публикует событие в очередь уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Status снимок состояния подписки для ответа API.
type Status struct {
	Status        string     `json:"status"` // trial, active или expired
	Kind          string     `json:"kind"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	IsEntitled    bool       `json:"is_entitled"`
	TrialConsumed bool       `json:"trial_consumed"`
	SearchCount   int        `json:"search_count"`
	LastSearchAt  *time.Time `json:"last_search_at,omitempty"`
	AutoRenew     bool       `json:"auto_renew"`
}

const statusCacheTTL = time.Minute

// Service реализует операции над подпиской пользователя.
type Service struct {
	users  UserRepository
	promos PromoRepository
	cache  Cache
	pub    Publisher
	log    *slog.Logger

	// now подменяется в тестах
	now func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, promos PromoRepository, cache Cache, pub Publisher, log *slog.Logger) *Service {
	return &Service{
		users:  users,
		promos: promos,
		cache:  cache,
		pub:    pub,
		log:    log,
		now:    time.Now,
	}
}

func statusCacheKey(userUID string) string {
	return fmt.Sprintf("substatus:%s", userUID)
}

func (s *Service) statusOf(user *models.User, now time.Time) *Status {
	return &Status{
		Status:        entitlement.StatusOf(user, now),
		Kind:          user.Subscription.Kind,
		StartDate:     user.Subscription.StartDate,
		EndDate:       user.Subscription.EndDate,
		IsEntitled:    entitlement.IsEntitled(user, now),
		TrialConsumed: user.Usage.TrialConsumed,
		SearchCount:   user.Usage.SearchCount,
		LastSearchAt:  user.Usage.LastSearchAt,
		AutoRenew:     user.Subscription.AutoRenew,
	}
}

// GetStatus возвращает снимок состояния подписки, используя кеш.
func (s *Service) GetStatus(ctx context.Context, userUID string) (*Status, error) {
	var cached *Status
	cacheKey := statusCacheKey(userUID)
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read status from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}
	status := s.statusOf(user, s.now())

	if err := s.cache.Set(ctx, cacheKey, status, statusCacheTTL); err != nil {
		s.log.Warn("failed to cache status", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return status, nil
}

// ConsumeSearch проверяет право пользователя на AI-поиск и списывает его.
// Для пробной подписки первое обращение безвозвратно расходует пробный
// доступ, для платной — только увеличивает счётчик. Если права нет,
// возвращает entitlement.ErrNotEntitled. Списание выполняется до вызова
// AI: ошибка внешнего сервиса пробный доступ не возвращает.
func (s *Service) ConsumeSearch(ctx context.Context, userUID string) error {
	err := s.consumeSearchOnce(ctx, userUID)
	if errors.Is(err, entitlement.ErrConcurrencyConflict) {
		s.log.Warn("usage save conflict, retrying", slog.String("user_uid", userUID))
		err = s.consumeSearchOnce(ctx, userUID)
	}
	return err
}

func (s *Service) consumeSearchOnce(ctx context.Context, userUID string) error {
	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return err
	}
	now := s.now()
	if !entitlement.IsEntitled(user, now) {
		return entitlement.ErrNotEntitled
	}

	if user.Subscription.Kind == models.KindTrial && !user.Usage.TrialConsumed {
		entitlement.ConsumeTrial(user, now)
	} else {
		entitlement.RecordUsage(user, now)
	}

	if err := s.users.SaveUserSubscription(ctx, user, nil); err != nil {
		return err
	}
	s.invalidateStatus(ctx, userUID)
	return nil
}

// Redeem активирует промокод для пользователя. Сначала выполняется
// условный инкремент счётчика кода вместе с записью в журнал, затем
// сохраняется новое состояние подписки. Если сохранение не удалось,
// инкремент компенсируется. При конфликте версий операция повторяется
// один раз целиком.
func (s *Service) Redeem(ctx context.Context, userUID, rawCode string) (*Status, error) {
	code, err := entitlement.CanonicalCode(rawCode)
	if err != nil {
		return nil, err
	}

	status, err := s.redeemOnce(ctx, userUID, code)
	if errors.Is(err, entitlement.ErrConcurrencyConflict) {
		s.log.Warn("redeem conflict, retrying",
			slog.String("user_uid", userUID), slog.String("code", code))
		status, err = s.redeemOnce(ctx, userUID, code)
	}
	return status, err
}

func (s *Service) redeemOnce(ctx context.Context, userUID, code string) (*Status, error) {
	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}

	// Порядок проверок фиксированный: сначала существование и пригодность
	// самого кода, только потом журнал пользователя
	promo, err := s.promos.GetPromoCode(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !entitlement.Redeemable(promo, now) {
		return nil, entitlement.ErrNotRedeemable
	}
	for _, rc := range user.RedeemedCodes {
		if rc.Code == code {
			return nil, entitlement.ErrAlreadyUsed
		}
	}

	if err := s.promos.RedeemPromoCode(ctx, code, userUID, now); err != nil {
		return nil, err
	}

	entitlement.ApplyPromo(user, promo, now)
	redeemed := &models.RedeemedCode{Code: code, RedeemedAt: now}
	if err := s.users.SaveUserSubscription(ctx, user, redeemed); err != nil {
		// Компенсация: снимаем инкремент счётчика, иначе слот кода
		// останется занятым без выданной подписки
		if relErr := s.promos.ReleasePromoCode(ctx, code, userUID); relErr != nil {
			s.log.Error("failed to release promo code after save failure",
				slog.String("code", code), slog.String("user_uid", userUID),
				slog.Any("err", relErr))
		}
		return nil, err
	}

	s.log.Info("promo code redeemed",
		slog.String("user_uid", userUID), slog.String("code", code),
		slog.String("kind", promo.Kind))
	s.invalidateStatus(ctx, userUID)

	event := models.PromoEvent{
		Email: user.Email,
		Name:  user.Name,
		Code:  code,
		Kind:  promo.Kind,
	}
	if err := s.pub.Publish(ctx, rabbitmq.RoutingKeyPromoActivated, event); err != nil {
		s.log.Warn("failed to publish promo event", slog.Any("err", err))
	}

	return s.statusOf(user, now), nil
}

// ActivateFromPayment переводит пользователя на оплаченный план.
// Дата начала сбрасывается на текущий момент, остаток старого окна
// не переносится. При конфликте версий операция повторяется один раз.
func (s *Service) ActivateFromPayment(ctx context.Context, userUID, planKind string, durationMonths int) error {
	err := s.activateOnce(ctx, userUID, planKind, durationMonths)
	if errors.Is(err, entitlement.ErrConcurrencyConflict) {
		s.log.Warn("activation conflict, retrying", slog.String("user_uid", userUID))
		err = s.activateOnce(ctx, userUID, planKind, durationMonths)
	}
	return err
}

func (s *Service) activateOnce(ctx context.Context, userUID, planKind string, durationMonths int) error {
	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return err
	}
	entitlement.ActivatePaid(user, planKind, durationMonths, s.now())
	if err := s.users.SaveUserSubscription(ctx, user, nil); err != nil {
		return err
	}
	s.invalidateStatus(ctx, userUID)
	return nil
}

func (s *Service) invalidateStatus(ctx context.Context, userUID string) {
	cacheKey := statusCacheKey(userUID)
	if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
		s.log.Warn("failed to invalidate status cache",
			slog.String("key", cacheKey), slog.Any("err", err))
	}
}
