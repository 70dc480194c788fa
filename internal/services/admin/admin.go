// Package admin содержит бизнес-логику административных сводок:
// количество пользователей, выручка и использование промокодов.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Repository описывает методы хранилища для сводок.
type Repository interface {
	CountUsers(ctx context.Context) (total int, paid int, err error)
	SumSearchCount(ctx context.Context) (int64, error)
	SumCompletedPayments(ctx context.Context) (int64, error)
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
}

// PromoUsage использование одного промокода.
type PromoUsage struct {
	Code     string `json:"code"`
	Kind     string `json:"kind"`
	UsedCnt  int    `json:"used_count"`
	MaxUses  *int   `json:"max_uses,omitempty"`
	IsActive bool   `json:"is_active"`
}

// Stats административная сводка.
type Stats struct {
	TotalUsers    int          `json:"total_users"`
	PaidUsers     int          `json:"paid_users"`
	TotalSearches int64        `json:"total_searches"`
	RevenueVND    int64        `json:"revenue_vnd"`
	PromoUsage    []PromoUsage `json:"promo_usage"`
}

// Service реализует административные сводки.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Stats собирает сводку по пользователям, выручке и промокодам.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	const op = "admin.Stats"

	total, paid, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	searches, err := s.repo.SumSearchCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revenue, err := s.repo.SumCompletedPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	promos, err := s.repo.ListPromoCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	usage := make([]PromoUsage, 0, len(promos))
	for _, p := range promos {
		usage = append(usage, PromoUsage{
			Code:     p.Code,
			Kind:     p.Kind,
			UsedCnt:  p.UsedCount,
			MaxUses:  p.MaxUses,
			IsActive: p.IsActive,
		})
	}

	return &Stats{
		TotalUsers:    total,
		PaidUsers:     paid,
		TotalSearches: searches,
		RevenueVND:    revenue,
		PromoUsage:    usage,
	}, nil
}
