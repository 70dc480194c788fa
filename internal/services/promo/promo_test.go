package promo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePromoCode(ctx context.Context, promo models.PromoCode) error {
	return m.Called(ctx, promo).Error(0)
}
func (m *RepoMock) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}
func (m *RepoMock) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PromoCode), args.Error(1)
}
func (m *RepoMock) DeactivatePromoCode(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		req     models.DummyCreatePromo
		check   func(t *testing.T, promo models.PromoCode)
		wantErr error
	}{
		{
			name: "code is canonicalized",
			req:  models.DummyCreatePromo{Code: " summer24 ", Kind: models.KindMonthly, DurationMonths: 2},
			check: func(t *testing.T, promo models.PromoCode) {
				assert.Equal(t, "SUMMER24", promo.Code)
				assert.Equal(t, 2, promo.DurationMonths)
				assert.True(t, promo.IsActive)
				assert.Equal(t, "admin-1", promo.CreatedBy)
			},
		},
		{
			name: "default duration is one month",
			req:  models.DummyCreatePromo{Code: "NODUR", Kind: models.KindMonthly},
			check: func(t *testing.T, promo models.PromoCode) {
				assert.Equal(t, 1, promo.DurationMonths)
			},
		},
		{
			name: "lifetime ignores duration",
			req:  models.DummyCreatePromo{Code: "FOREVER", Kind: models.KindLifetime, DurationMonths: 6},
			check: func(t *testing.T, promo models.PromoCode) {
				assert.Equal(t, 0, promo.DurationMonths)
			},
		},
		{
			name: "expires_at parsed as RFC3339",
			req: models.DummyCreatePromo{
				Code: "TIMED", Kind: models.KindMonthly,
				ExpiresAt: "2025-12-31T00:00:00Z",
			},
			check: func(t *testing.T, promo models.PromoCode) {
				require.NotNil(t, promo.ExpiresAt)
				assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), promo.ExpiresAt.UTC())
			},
		},
		{
			name:    "empty code",
			req:     models.DummyCreatePromo{Code: "  ", Kind: models.KindMonthly},
			wantErr: entitlement.ErrInvalidInput,
		},
		{
			name: "bad expires_at",
			req: models.DummyCreatePromo{
				Code: "BADTIME", Kind: models.KindMonthly, ExpiresAt: "tomorrow",
			},
			wantErr: entitlement.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := New(repo, newNoopLogger())

			var created models.PromoCode
			if tt.wantErr == nil {
				repo.On("CreatePromoCode", mock.Anything, mock.MatchedBy(func(p models.PromoCode) bool {
					created = p
					return true
				})).Return(nil).Once()
			}

			promo, err := svc.Create(context.Background(), "admin-1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, created.Code, promo.Code)
				tt.check(t, created)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestDeactivate(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, newNoopLogger())

	repo.On("DeactivatePromoCode", mock.Anything, "GONE").Return(nil).Once()
	require.NoError(t, svc.Deactivate(context.Background(), "gone"))

	repo.On("DeactivatePromoCode", mock.Anything, "MISSING").
		Return(entitlement.ErrNotFound).Once()
	assert.ErrorIs(t, svc.Deactivate(context.Background(), "missing"), entitlement.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestList(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, newNoopLogger())

	promos := []*models.PromoCode{{Code: "A"}, {Code: "B"}}
	repo.On("ListPromoCodes", mock.Anything).Return(promos, nil).Once()

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
