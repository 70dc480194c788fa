package models

import "time"

// PromoCode представляет промокод, выпущенный администратором.
// Код хранится в верхнем регистре. MaxUses == nil означает отсутствие
// ограничения на количество активаций, ExpiresAt == nil — бессрочный код.
type PromoCode struct {
	Code           string     `json:"code"`            // Уникальный код в верхнем регистре
	Kind           string     `json:"kind"`            // monthly, quarterly или lifetime
	DurationMonths int        `json:"duration_months"` // Длительность в месяцах, игнорируется для lifetime
	MaxUses        *int       `json:"max_uses"`        // Лимит активаций, nil — без лимита
	UsedCount      int        `json:"used_count"`      // Количество выполненных активаций
	ExpiresAt      *time.Time `json:"expires_at"`      // Срок действия кода, nil — бессрочно
	IsActive       bool       `json:"is_active"`       // Административный выключатель
	CreatedBy      string     `json:"created_by"`      // UID администратора, создавшего код
	CreatedAt      time.Time  `json:"created_at"`      // Дата создания
}

// Redemption — запись журнала активаций промокода: кто и когда активировал.
// UsedCount и журнал обновляются атомарно и никогда не расходятся.
type Redemption struct {
	Code       string    `json:"code"`
	UserUID    string    `json:"user_uid"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// DummyApplyPromo используется для приёма кода активации из JSON-запроса.
type DummyApplyPromo struct {
	Code string `json:"code" validate:"required"`
}

// DummyCreatePromo используется для приёма данных нового промокода из JSON-запроса.
type DummyCreatePromo struct {
	Code           string `json:"code" validate:"required,min=3,max=32"`
	Kind           string `json:"kind" validate:"required,oneof=monthly quarterly lifetime"`
	DurationMonths int    `json:"duration_months" validate:"omitempty,gt=0"`
	MaxUses        *int   `json:"max_uses" validate:"omitempty,gt=0"`
	ExpiresAt      string `json:"expires_at" validate:"omitempty"` // Дата в формате RFC3339
}
