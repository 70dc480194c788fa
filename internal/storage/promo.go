package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// ===== PROMO CODE METHODS =====

// CreatePromoCode сохраняет новый промокод.
func (s *Storage) CreatePromoCode(ctx context.Context, promo models.PromoCode) error {
	const op = "storage.CreatePromoCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO promo_codes (code, kind, duration_months, max_uses,
			      used_count, expires_at, is_active, created_by)
			  VALUES ($1, $2, $3, $4, 0, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		promo.Code, promo.Kind, promo.DurationMonths, promo.MaxUses,
		promo.ExpiresAt, promo.IsActive, promo.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, entitlement.ErrAlreadyUsed)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPromoCode возвращает промокод по каноническому коду.
// Если код не существует, возвращает entitlement.ErrNotFound.
func (s *Storage) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const op = "storage.GetPromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT code, kind, duration_months, max_uses, used_count,
				expires_at, is_active, created_by, created_at
			  FROM promo_codes WHERE code = $1`
	var promo models.PromoCode
	err := s.DB.QueryRowContext(ctx, query, code).Scan(
		&promo.Code, &promo.Kind, &promo.DurationMonths, &promo.MaxUses, &promo.UsedCount,
		&promo.ExpiresAt, &promo.IsActive, &promo.CreatedBy, &promo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entitlement.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &promo, nil
}

// ListPromoCodes возвращает все промокоды для панели администратора.
func (s *Storage) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	const op = "storage.ListPromoCodes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT code, kind, duration_months, max_uses, used_count,
				expires_at, is_active, created_by, created_at
			  FROM promo_codes ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PromoCode
	for rows.Next() {
		var promo models.PromoCode
		if err := rows.Scan(&promo.Code, &promo.Kind, &promo.DurationMonths, &promo.MaxUses,
			&promo.UsedCount, &promo.ExpiresAt, &promo.IsActive, &promo.CreatedBy,
			&promo.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &promo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeactivatePromoCode отключает промокод, не удаляя журнал активаций.
func (s *Storage) DeactivatePromoCode(ctx context.Context, code string) error {
	const op = "storage.DeactivatePromoCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE promo_codes SET is_active = FALSE WHERE code = $1`
	result, err := s.DB.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, entitlement.ErrNotFound)
	}
	return nil
}

// RedeemPromoCode атомарно инкрементирует счётчик активаций кода и
// добавляет запись в журнал активаций в одной транзакции. Инкремент
// условный: он проходит только если код активен, не просрочен и лимит
// не исчерпан, поэтому при конкурентных активациях последнего слота
// ровно одна из них успешна, остальные получают
// entitlement.ErrNotRedeemable. Повторная активация тем же пользователем
// возвращает entitlement.ErrAlreadyUsed.
func (s *Storage) RedeemPromoCode(ctx context.Context, code, userUID string, now time.Time) error {
	const op = "storage.RedeemPromoCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE promo_codes
			  SET used_count = used_count + 1
			  WHERE code = $1 AND is_active
			    AND (max_uses IS NULL OR used_count < max_uses)
			    AND (expires_at IS NULL OR expires_at > $2)`
	result, err := tx.ExecContext(ctx, query, code, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, entitlement.ErrNotRedeemable)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO promo_redemptions (code, user_uid, redeemed_at) VALUES ($1, $2, $3)`,
		code, userUID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, entitlement.ErrAlreadyUsed)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReleasePromoCode компенсирует активацию: снимает инкремент счётчика
// и удаляет запись из журнала. Вызывается, когда сохранение подписки
// пользователя после успешного RedeemPromoCode не удалось.
func (s *Storage) ReleasePromoCode(ctx context.Context, code, userUID string) error {
	const op = "storage.ReleasePromoCode"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM promo_redemptions WHERE code = $1 AND user_uid = $2`, code, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE promo_codes SET used_count = used_count - 1 WHERE code = $1 AND used_count > 0`,
			code)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HasRedeemed проверяет, активировал ли пользователь данный код.
func (s *Storage) HasRedeemed(ctx context.Context, code, userUID string) (bool, error) {
	const op = "storage.HasRedeemed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM promo_redemptions WHERE code = $1 AND user_uid = $2)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, code, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
