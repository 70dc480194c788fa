// Package entitlement реализует перерасчёт состояния подписки пользователя:
// право на использование AI-поиска, потребление пробного доступа,
// активацию промокодов с наращиванием окна подписки и активацию
// оплаченного периода.
//
// Все функции пакета чистые: принимают снимок пользователя и текущее время,
// не обращаются к хранилищу и не читают системные часы. Право на доступ
// никогда не хранится, оно всегда выводится из полей подписки.
package entitlement

import (
	"strings"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// LifetimeEnd сентинельная дата окончания для пожизненной подписки.
// Для kind == lifetime дата окончания никогда не сравнивается с текущим
// временем: ветка lifetime в IsEntitled не смотрит на часы.
var LifetimeEnd = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

// Статусы подписки для отображения.
const (
	StatusTrial   = "trial"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// IsEntitled возвращает true, если пользователю сейчас доступен AI-поиск.
//
// Неиспользованный пробный доступ даёт право всегда, независимо от того,
// сколько времени прошло с регистрации: пробный доступ однократный,
// а не ограниченный по времени. Хранимая дата окончания trial-подписки
// используется только для отображения: использованный пробный доступ
// не даёт права, даже пока эта дата ещё впереди.
func IsEntitled(u *models.User, now time.Time) bool {
	if u.Subscription.Kind == models.KindTrial {
		return !u.Usage.TrialConsumed
	}
	if u.Subscription.Kind == models.KindExpired {
		return false
	}
	return u.Subscription.IsActive && now.Before(u.Subscription.EndDate)
}

// StatusOf классифицирует состояние подписки для отображения.
func StatusOf(u *models.User, now time.Time) string {
	if u.Subscription.Kind == models.KindTrial && !u.Usage.TrialConsumed {
		return StatusTrial
	}
	if IsEntitled(u, now) {
		return StatusActive
	}
	return StatusExpired
}

// ConsumeTrial отмечает пробный доступ использованным и фиксирует поиск.
//
// Переход необратим: после установки флага trial-ветка IsEntitled больше
// никогда не срабатывает для этого пользователя, даже если вид подписки
// остался trial. Вызывающий код обязан предварительно убедиться, что
// IsEntitled вернул true именно по trial-ветке, — повторную проверку
// функция не выполняет.
func ConsumeTrial(u *models.User, now time.Time) {
	u.Usage.TrialConsumed = true
	u.Usage.SearchCount++
	u.Usage.LastSearchAt = &now
}

// RecordUsage фиксирует один оплаченный поиск. Не идемпотентна: каждый
// вызов соответствует одному реальному использованию.
func RecordUsage(u *models.User, now time.Time) {
	u.Usage.SearchCount++
	u.Usage.LastSearchAt = &now
}

// CanonicalCode приводит промокод к каноническому виду: обрезает пробелы
// и переводит в верхний регистр. Пустой код — ErrInvalidInput.
func CanonicalCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrInvalidInput
	}
	return code, nil
}

// Redeemable сообщает, можно ли сейчас активировать промокод:
// код включён, лимит активаций не исчерпан и срок действия не истёк.
func Redeemable(p *models.PromoCode, now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	return true
}

// ApplyPromo пересчитывает окно подписки пользователя после активации
// промокода и записывает активацию в журнал пользователя.
//
// Если у пользователя есть действующая оплаченная подписка, новое окно
// наращивается от её даты окончания, а не от текущего момента: ранняя
// активация не сжигает оплаченное время. Иначе окно начинается сейчас.
// Для lifetime-кода дата окончания — сентинель LifetimeEnd.
// Промокоды никогда не включают автопродление.
func ApplyPromo(u *models.User, p *models.PromoCode, now time.Time) {
	baseStart := now
	if u.Subscription.IsActive && now.Before(u.Subscription.EndDate) {
		baseStart = u.Subscription.EndDate
	}

	var newEnd time.Time
	if p.Kind == models.KindLifetime {
		newEnd = LifetimeEnd
	} else {
		newEnd = baseStart.AddDate(0, p.DurationMonths, 0)
	}

	u.Subscription = models.Subscription{
		Kind:      p.Kind,
		StartDate: baseStart,
		EndDate:   newEnd,
		IsActive:  true,
		AutoRenew: false,
	}
	u.RedeemedCodes = append(u.RedeemedCodes, models.RedeemedCode{
		Code:       p.Code,
		RedeemedAt: now,
	})
}

// ActivatePaid активирует оплаченный период подписки.
//
// В отличие от промокода оплата не наращивает текущее окно, а начинает
// новое от текущего момента: дата старта сбрасывается на now. Асимметрия
// унаследована от исходного поведения продукта.
func ActivatePaid(u *models.User, planKind string, durationMonths int, now time.Time) {
	u.Subscription = models.Subscription{
		Kind:      planKind,
		StartDate: now,
		EndDate:   now.AddDate(0, durationMonths, 0),
		IsActive:  true,
		AutoRenew: u.Subscription.AutoRenew,
	}
}
