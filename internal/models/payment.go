package models

import "time"

// Статусы платежа.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentCancelled = "cancelled"
)

// Plan описывает тарифный план платной подписки.
type Plan struct {
	Kind           string `json:"kind"`            // monthly или yearly
	Name           string `json:"name"`            // Отображаемое название
	Price          int64  `json:"price"`           // Цена в VND
	DurationMonths int    `json:"duration_months"` // Длительность в месяцах
	Description    string `json:"description"`     // Описание плана
}

// Payment представляет запись об оплате подписки.
type Payment struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	OrderID   string    `json:"order_id"`   // Внутренний идентификатор заказа SUB_<uid>_<unix>
	OrderCode int64     `json:"order_code"` // Числовой код заказа для платёжного провайдера
	Amount    int64     `json:"amount"`     // Сумма в VND
	Currency  string    `json:"currency"`
	PlanKind  string    `json:"plan_kind"` // Вид оплаченного плана
	Status    string    `json:"status"`    // pending, completed или cancelled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentEvent сообщение о подтверждённой оплате, публикуемое в очередь
// для отправки письма-квитанции.
type PaymentEvent struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	OrderID  string `json:"order_id"`
	PlanKind string `json:"plan_kind"`
	Amount   int64  `json:"amount"`
}

// PromoEvent сообщение об активации промокода для уведомления пользователя.
type PromoEvent struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Code  string `json:"code"`
	Kind  string `json:"kind"`
}

// DummyCreatePayment используется для приёма запроса на создание платежа.
type DummyCreatePayment struct {
	PlanKind string `json:"plan_kind" validate:"required,oneof=monthly yearly"`
}

// DummyVerifyPayment используется для приёма запроса на проверку платежа.
type DummyVerifyPayment struct {
	OrderID   string `json:"order_id" validate:"required"`
	OrderCode int64  `json:"order_code" validate:"required"`
}
