package entitlement

import "errors"

// Ошибки активации промокода и сохранения состояния подписки.
// Все ошибки возвращаются вызывающему коду как типизированный результат,
// ни одна не является фатальной для процесса.
var (
	// ErrInvalidInput пустой или некорректный промокод.
	ErrInvalidInput = errors.New("invalid promo code input")
	// ErrNotFound промокод не существует.
	ErrNotFound = errors.New("promo code not found")
	// ErrNotRedeemable промокод отключён, исчерпан или просрочен.
	ErrNotRedeemable = errors.New("promo code is not redeemable")
	// ErrAlreadyUsed пользователь уже активировал этот промокод.
	ErrAlreadyUsed = errors.New("promo code already used by this account")
	// ErrConcurrencyConflict оптимистическая блокировка не прошла,
	// операцию нужно повторить с заново прочитанным состоянием.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")
	// ErrNotEntitled у пользователя нет права на использование AI-поиска.
	ErrNotEntitled = errors.New("account is not entitled")
)
