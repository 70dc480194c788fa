// Package storage реализует хранилище данных на основе PostgreSQL
// для пользователей, промокодов, блог-постов и платежей. Состояние
// подписки пользователя сохраняется с оптимистической блокировкой
// через колонку version, активация промокода выполняется условным
// инкрементом счётчика вместе с записью в журнал в одной транзакции.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Код ошибки PostgreSQL для нарушения уникального ограничения.
const pgUniqueViolation = "23505"

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями, промокодами,
// блогом и платежами.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ===== USER METHODS =====

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (uid, email, name, password_hash, role, auth_provider, avatar,
			      sub_kind, sub_start, sub_end, sub_is_active, sub_auto_renew,
			      trial_consumed, search_count, version)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Email, user.Name, user.PasswordHash, user.Role, user.AuthProvider,
		user.Avatar, user.Subscription.Kind, user.Subscription.StartDate, user.Subscription.EndDate,
		user.Subscription.IsActive, user.Subscription.AutoRenew,
		user.Usage.TrialConsumed, user.Usage.SearchCount).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, entitlement.ErrAlreadyUsed)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email вместе с журналом
// активированных промокодов. Если пользователь не найден, возвращает
// entitlement.ErrNotFound.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, name, password_hash, role, auth_provider, avatar,
				sub_kind, sub_start, sub_end, sub_is_active, sub_auto_renew,
				trial_consumed, search_count, last_search_at, version, created_at
			  FROM users WHERE email = $1`
	user, err := s.scanUser(ctx, s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByUID возвращает пользователя по UID вместе с журналом
// активированных промокодов.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, name, password_hash, role, auth_provider, avatar,
				sub_kind, sub_start, sub_end, sub_is_active, sub_auto_renew,
				trial_consumed, search_count, last_search_at, version, created_at
			  FROM users WHERE uid = $1`
	user, err := s.scanUser(ctx, s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Storage) scanUser(ctx context.Context, row *sql.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.UID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
		&user.AuthProvider, &user.Avatar, &user.Subscription.Kind, &user.Subscription.StartDate,
		&user.Subscription.EndDate, &user.Subscription.IsActive, &user.Subscription.AutoRenew,
		&user.Usage.TrialConsumed, &user.Usage.SearchCount, &user.Usage.LastSearchAt,
		&user.Version, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entitlement.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT code, redeemed_at FROM redeemed_promo_codes WHERE user_uid = $1 ORDER BY redeemed_at`,
		user.UID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var rc models.RedeemedCode
		if err := rows.Scan(&rc.Code, &rc.RedeemedAt); err != nil {
			return nil, err
		}
		user.RedeemedCodes = append(user.RedeemedCodes, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUserSubscription сохраняет состояние подписки и счётчики использования
// с проверкой версии записи. Если версия в базе не совпадает с прочитанной,
// возвращает entitlement.ErrConcurrencyConflict — вызывающий код должен
// перечитать пользователя и повторить операцию. Если передан redeemed,
// запись в журнал кодов пользователя делается в той же транзакции;
// повторная активация того же кода возвращает entitlement.ErrAlreadyUsed.
func (s *Storage) SaveUserSubscription(ctx context.Context, user *models.User, redeemed *models.RedeemedCode) error {
	const op = "storage.SaveUserSubscription"
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

	query := `UPDATE users
			  SET sub_kind = $1, sub_start = $2, sub_end = $3, sub_is_active = $4,
			      sub_auto_renew = $5, trial_consumed = $6, search_count = $7,
			      last_search_at = $8, version = version + 1, updated_at = now()
			  WHERE uid = $9 AND version = $10`
	result, err := tx.ExecContext(ctx, query,
		user.Subscription.Kind, user.Subscription.StartDate, user.Subscription.EndDate,
		user.Subscription.IsActive, user.Subscription.AutoRenew,
		user.Usage.TrialConsumed, user.Usage.SearchCount, user.Usage.LastSearchAt,
		user.UID, user.Version)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, entitlement.ErrConcurrencyConflict)
	}

	if redeemed != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO redeemed_promo_codes (user_uid, code, redeemed_at) VALUES ($1, $2, $3)`,
			user.UID, redeemed.Code, redeemed.RedeemedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w", op, entitlement.ErrAlreadyUsed)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user.Version++
	return nil
}

// UpdateUserProfile обновляет имя и аватар пользователя.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID, name, avatar string) error {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET name = $1, avatar = $2, updated_at = now() WHERE uid = $3`
	_, err := s.DB.ExecContext(ctx, query, name, avatar, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsers возвращает общее количество пользователей и количество
// пользователей с активной платной подпиской для панели администратора.
func (s *Storage) CountUsers(ctx context.Context) (total int, paid int, err error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*),
				COUNT(*) FILTER (WHERE sub_kind NOT IN ('trial', 'expired')
				                 AND sub_is_active AND sub_end > now())
			  FROM users`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total, &paid); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, paid, nil
}

// SumSearchCount возвращает суммарное количество AI-поисков всех пользователей.
func (s *Storage) SumSearchCount(ctx context.Context) (int64, error) {
	const op = "storage.SumSearchCount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int64
	query := `SELECT COALESCE(SUM(search_count), 0) FROM users`
	if err := s.DB.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
