// Package models содержит доменные структуры проекта Vivu Travel:
// пользователи с подпиской и счётчиками использования, промокоды,
// блог-посты и платежи, а также вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import "time"

// Виды подписки пользователя.
const (
	KindTrial     = "trial"
	KindMonthly   = "monthly"
	KindQuarterly = "quarterly"
	KindYearly    = "yearly"
	KindLifetime  = "lifetime"
	KindExpired   = "expired"
)

// Subscription описывает окно подписки пользователя.
// Для kind == lifetime поле EndDate содержит сентинельную дату
// в далёком будущем и никогда не сравнивается с текущим временем.
type Subscription struct {
	Kind      string    `json:"kind"`       // Вид подписки: trial, monthly, quarterly, yearly, lifetime, expired
	StartDate time.Time `json:"start_date"` // Дата начала подписки
	EndDate   time.Time `json:"end_date"`   // Дата окончания подписки
	IsActive  bool      `json:"is_active"`  // Административный флаг активности, не зависит от времени
	AutoRenew bool      `json:"auto_renew"` // Автопродление (промокоды его никогда не включают)
}

// Usage хранит счётчики использования AI-поиска.
type Usage struct {
	TrialConsumed bool       `json:"trial_consumed"` // Пробный доступ использован (однократный, не сбрасывается)
	SearchCount   int        `json:"search_count"`   // Количество выполненных поисков
	LastSearchAt  *time.Time `json:"last_search_at"` // Время последнего поиска
}

// RedeemedCode элемент журнала активированных пользователем промокодов.
// Журнал только пополняется, один код встречается не более одного раза.
type RedeemedCode struct {
	Code       string    `json:"code"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID           string         `json:"uid"`                      // Уникальный идентификатор пользователя
	Email         string         `json:"email"`                    // Электронная почта (уникальная, в нижнем регистре)
	Name          string         `json:"name"`                     // Отображаемое имя
	PasswordHash  string         `json:"-"`                        // Хэш пароля (пустой для OAuth-пользователей)
	Role          string         `json:"role"`                     // Роль пользователя, admin или user
	AuthProvider  string         `json:"auth_provider"`            // Способ регистрации: local или google
	Avatar        string         `json:"avatar,omitempty"`         // URL аватара (для OAuth)
	Subscription  Subscription   `json:"subscription"`             // Текущее окно подписки
	Usage         Usage          `json:"usage"`                    // Счётчики использования
	RedeemedCodes []RedeemedCode `json:"redeemed_codes,omitempty"` // Журнал активированных промокодов
	Version       int            `json:"-"`                        // Версия записи для оптимистической блокировки
	CreatedAt     time.Time      `json:"created_at"`               // Дата регистрации
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyGoogleLogin используется для приёма ID-токена Google из JSON-запроса.
type DummyGoogleLogin struct {
	Credential string `json:"credential" validate:"required"`
}
