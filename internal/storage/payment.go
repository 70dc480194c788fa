package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// ===== PAYMENT METHODS =====

// SavePayment сохраняет запись о созданном платеже и возвращает её ID.
func (s *Storage) SavePayment(ctx context.Context, payment models.Payment) (int, error) {
	const op = "storage.SavePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (user_uid, order_id, order_code, amount, currency,
			      plan_kind, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.OrderID, payment.OrderCode, payment.Amount,
		payment.Currency, payment.PlanKind, payment.Status).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentByOrderID возвращает платёж по внутреннему идентификатору заказа.
// Если платёж не найден, возвращает entitlement.ErrNotFound.
func (s *Storage) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, order_id, order_code, amount, currency,
				plan_kind, status, created_at, updated_at
			  FROM payments WHERE order_id = $1`
	var payment models.Payment
	err := s.DB.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID, &payment.UserUID, &payment.OrderID, &payment.OrderCode,
		&payment.Amount, &payment.Currency, &payment.PlanKind, &payment.Status,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entitlement.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment, nil
}

// GetPaymentByOrderCode возвращает платёж по числовому коду заказа,
// который приходит в уведомлениях провайдера.
func (s *Storage) GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error) {
	const op = "storage.GetPaymentByOrderCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, order_id, order_code, amount, currency,
				plan_kind, status, created_at, updated_at
			  FROM payments WHERE order_code = $1
			  ORDER BY created_at DESC LIMIT 1`
	var payment models.Payment
	err := s.DB.QueryRowContext(ctx, query, orderCode).Scan(
		&payment.ID, &payment.UserUID, &payment.OrderID, &payment.OrderCode,
		&payment.Amount, &payment.Currency, &payment.PlanKind, &payment.Status,
		&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entitlement.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &payment, nil
}

// UpdatePaymentStatus переводит платёж из pending в новый статус.
// Возвращает количество обновлённых строк: 0 означает, что платёж
// уже обработан и подписку активировать повторно не нужно.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, orderID, status string) (int, error) {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments SET status = $1, updated_at = now()
			  WHERE order_id = $2 AND status = 'pending'`
	result, err := s.DB.ExecContext(ctx, query, status, orderID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListPayments возвращает платежи пользователя, новые первыми.
func (s *Storage) ListPayments(ctx context.Context, userUID string) ([]*models.Payment, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, order_id, order_code, amount, currency,
				plan_kind, status, created_at, updated_at
			  FROM payments WHERE user_uid = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserUID, &p.OrderID, &p.OrderCode, &p.Amount,
			&p.Currency, &p.PlanKind, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumCompletedPayments возвращает сумму подтверждённых платежей в VND
// для панели администратора.
func (s *Storage) SumCompletedPayments(ctx context.Context) (int64, error) {
	const op = "storage.SumCompletedPayments"
	var total int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed'`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
