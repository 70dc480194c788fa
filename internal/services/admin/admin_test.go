package admin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) CountUsers(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *RepositoryMock) SumSearchCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepositoryMock) SumCompletedPayments(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepositoryMock) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PromoCode), args.Error(1)
}

func newService(repo *RepositoryMock) *Service {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return New(repo, log)
}

func TestStats(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo)

	maxUses := 100
	repo.On("CountUsers", mock.Anything).Return(42, 7, nil)
	repo.On("SumSearchCount", mock.Anything).Return(int64(389), nil)
	repo.On("SumCompletedPayments", mock.Anything).Return(int64(1750000), nil)
	repo.On("ListPromoCodes", mock.Anything).Return([]*models.PromoCode{
		{Code: "VIVU1MON", Kind: "monthly", UsedCount: 13, MaxUses: &maxUses, IsActive: true},
		{Code: "LAUNCH", Kind: "lifetime", UsedCount: 4, IsActive: false},
	}, nil)

	result, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 42, result.TotalUsers)
	assert.Equal(t, 7, result.PaidUsers)
	assert.Equal(t, int64(389), result.TotalSearches)
	assert.Equal(t, int64(1750000), result.RevenueVND)
	require.Len(t, result.PromoUsage, 2)
	assert.Equal(t, "VIVU1MON", result.PromoUsage[0].Code)
	assert.Equal(t, 13, result.PromoUsage[0].UsedCnt)
	require.NotNil(t, result.PromoUsage[0].MaxUses)
	assert.Equal(t, 100, *result.PromoUsage[0].MaxUses)
	assert.Nil(t, result.PromoUsage[1].MaxUses)
	assert.False(t, result.PromoUsage[1].IsActive)
	repo.AssertExpectations(t)
}

func TestStatsCountError(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo)

	repo.On("CountUsers", mock.Anything).Return(0, 0, errors.New("db error"))

	result, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	repo.AssertNotCalled(t, "SumCompletedPayments", mock.Anything)
}

func TestStatsRevenueError(t *testing.T) {
	repo := new(RepositoryMock)
	svc := newService(repo)

	repo.On("CountUsers", mock.Anything).Return(10, 2, nil)
	repo.On("SumSearchCount", mock.Anything).Return(int64(50), nil)
	repo.On("SumCompletedPayments", mock.Anything).Return(int64(0), errors.New("db error"))

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	repo.AssertNotCalled(t, "ListPromoCodes", mock.Anything)
}
