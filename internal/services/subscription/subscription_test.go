package subscription

import (
	"context"
	"errors"
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

type UsersMock struct{ mock.Mock }

func (m *UsersMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UsersMock) SaveUserSubscription(ctx context.Context, user *models.User, redeemed *models.RedeemedCode) error {
	return m.Called(ctx, user, redeemed).Error(0)
}

type PromosMock struct{ mock.Mock }

func (m *PromosMock) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}
func (m *PromosMock) RedeemPromoCode(ctx context.Context, code, userUID string, now time.Time) error {
	return m.Called(ctx, code, userUID, now).Error(0)
}
func (m *PromosMock) ReleasePromoCode(ctx context.Context, code, userUID string) error {
	return m.Called(ctx, code, userUID).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newService(users *UsersMock, promos *PromosMock, cache *CacheMock, pub *PublisherMock) *Service {
	svc := New(users, promos, cache, pub, newNoopLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func trialUser(uid string) *models.User {
	return &models.User{
		UID:   uid,
		Email: "user@example.com",
		Name:  "user",
		Subscription: models.Subscription{
			Kind:      models.KindTrial,
			StartDate: testNow.Add(-time.Hour),
			EndDate:   testNow.Add(23 * time.Hour),
			IsActive:  true,
		},
		Version: 1,
	}
}

func allowCache(cache *CacheMock) {
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestGetStatus(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)

	cache.On("Get", mock.Anything, "substatus:u1", mock.Anything).Return(false, nil).Once()
	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	cache.On("Set", mock.Anything, "substatus:u1", mock.Anything, time.Minute).Return(nil).Once()

	status, err := svc.GetStatus(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusTrial, status.Status)
	assert.True(t, status.IsEntitled)
	assert.False(t, status.TrialConsumed)

	users.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestConsumeSearch(t *testing.T) {
	tests := []struct {
		name    string
		user    func() *models.User
		wantErr error
		check   func(t *testing.T, saved *models.User)
	}{
		{
			name: "trial consumes one-shot access",
			user: func() *models.User { return trialUser("u1") },
			check: func(t *testing.T, saved *models.User) {
				assert.True(t, saved.Usage.TrialConsumed)
				assert.Equal(t, 1, saved.Usage.SearchCount)
				require.NotNil(t, saved.Usage.LastSearchAt)
				assert.Equal(t, testNow, *saved.Usage.LastSearchAt)
			},
		},
		{
			name: "consumed trial has no access",
			user: func() *models.User {
				u := trialUser("u1")
				u.Usage.TrialConsumed = true
				return u
			},
			wantErr: entitlement.ErrNotEntitled,
		},
		{
			name: "paid subscription only counts usage",
			user: func() *models.User {
				u := trialUser("u1")
				u.Subscription.Kind = models.KindMonthly
				u.Subscription.EndDate = testNow.AddDate(0, 1, 0)
				u.Usage.TrialConsumed = true
				u.Usage.SearchCount = 4
				return u
			},
			check: func(t *testing.T, saved *models.User) {
				assert.True(t, saved.Usage.TrialConsumed)
				assert.Equal(t, 5, saved.Usage.SearchCount)
			},
		},
		{
			name: "expired subscription has no access",
			user: func() *models.User {
				u := trialUser("u1")
				u.Subscription.Kind = models.KindExpired
				u.Usage.TrialConsumed = true
				return u
			},
			wantErr: entitlement.ErrNotEntitled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			promos := new(PromosMock)
			cache := new(CacheMock)
			pub := new(PublisherMock)
			svc := newService(users, promos, cache, pub)
			allowCache(cache)

			var saved *models.User
			users.On("GetUserByUID", mock.Anything, "u1").Return(tt.user(), nil).Once()
			if tt.wantErr == nil {
				users.On("SaveUserSubscription", mock.Anything, mock.Anything, (*models.RedeemedCode)(nil)).
					Run(func(args mock.Arguments) {
						saved = args.Get(1).(*models.User)
					}).Return(nil).Once()
			}

			err := svc.ConsumeSearch(context.Background(), "u1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.check(t, saved)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestConsumeSearchRetriesOnConflict(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, (*models.RedeemedCode)(nil)).
		Return(entitlement.ErrConcurrencyConflict).Once()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, (*models.RedeemedCode)(nil)).
		Return(nil).Once()

	require.NoError(t, svc.ConsumeSearch(context.Background(), "u1"))
	users.AssertExpectations(t)
}

func TestConsumeSearchGivesUpAfterSecondConflict(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, (*models.RedeemedCode)(nil)).
		Return(entitlement.ErrConcurrencyConflict).Twice()

	err := svc.ConsumeSearch(context.Background(), "u1")
	assert.ErrorIs(t, err, entitlement.ErrConcurrencyConflict)
	users.AssertExpectations(t)
}

func monthlyPromo(code string) *models.PromoCode {
	return &models.PromoCode{
		Code:           code,
		Kind:           models.KindMonthly,
		DurationMonths: 1,
		IsActive:       true,
	}
}

func TestRedeem(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	user := trialUser("u1")
	users.On("GetUserByUID", mock.Anything, "u1").Return(user, nil).Once()
	promos.On("GetPromoCode", mock.Anything, "VIVU1MON").Return(monthlyPromo("VIVU1MON"), nil).Once()
	promos.On("RedeemPromoCode", mock.Anything, "VIVU1MON", "u1", testNow).Return(nil).Once()

	var saved *models.User
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, mock.MatchedBy(func(rc *models.RedeemedCode) bool {
		return rc != nil && rc.Code == "VIVU1MON"
	})).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.User)
	}).Return(nil).Once()
	pub.On("Publish", mock.Anything, "promo.activated", mock.Anything).Return(nil).Once()

	// Код приходит в нижнем регистре с пробелами и нормализуется
	status, err := svc.Redeem(context.Background(), "u1", "  vivu1mon ")
	require.NoError(t, err)
	assert.Equal(t, models.KindMonthly, saved.Subscription.Kind)
	assert.False(t, saved.Subscription.AutoRenew)
	assert.Equal(t, entitlement.StatusActive, status.Status)

	users.AssertExpectations(t)
	promos.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRedeemStacksFromCurrentExpiry(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	user := trialUser("u1")
	user.Subscription.Kind = models.KindMonthly
	user.Subscription.EndDate = testNow.AddDate(0, 0, 10)

	users.On("GetUserByUID", mock.Anything, "u1").Return(user, nil).Once()
	promos.On("GetPromoCode", mock.Anything, "EXTRA").Return(monthlyPromo("EXTRA"), nil).Once()
	promos.On("RedeemPromoCode", mock.Anything, "EXTRA", "u1", testNow).Return(nil).Once()

	var saved *models.User
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.User)
		}).Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Redeem(context.Background(), "u1", "EXTRA")
	require.NoError(t, err)
	assert.Equal(t, testNow.AddDate(0, 0, 10).AddDate(0, 1, 0), saved.Subscription.EndDate)
}

func TestRedeemErrors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		setup   func(users *UsersMock, promos *PromosMock)
		wantErr error
	}{
		{
			name:    "empty code",
			raw:     "   ",
			setup:   func(_ *UsersMock, _ *PromosMock) {},
			wantErr: entitlement.ErrInvalidInput,
		},
		{
			name: "unknown code",
			raw:  "GHOST",
			setup: func(users *UsersMock, promos *PromosMock) {
				users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
				promos.On("GetPromoCode", mock.Anything, "GHOST").
					Return(nil, entitlement.ErrNotFound).Once()
			},
			wantErr: entitlement.ErrNotFound,
		},
		{
			name: "code already in user journal",
			raw:  "USED",
			setup: func(users *UsersMock, promos *PromosMock) {
				u := trialUser("u1")
				u.RedeemedCodes = []models.RedeemedCode{{Code: "USED", RedeemedAt: testNow}}
				users.On("GetUserByUID", mock.Anything, "u1").Return(u, nil).Once()
				promos.On("GetPromoCode", mock.Anything, "USED").Return(monthlyPromo("USED"), nil).Once()
			},
			wantErr: entitlement.ErrAlreadyUsed,
		},
		{
			// Код и отключён, и есть в журнале: первой срабатывает
			// проверка пригодности самого кода
			name: "inactive code beats user journal",
			raw:  "STALE",
			setup: func(users *UsersMock, promos *PromosMock) {
				u := trialUser("u1")
				u.RedeemedCodes = []models.RedeemedCode{{Code: "STALE", RedeemedAt: testNow}}
				users.On("GetUserByUID", mock.Anything, "u1").Return(u, nil).Once()
				p := monthlyPromo("STALE")
				p.IsActive = false
				promos.On("GetPromoCode", mock.Anything, "STALE").Return(p, nil).Once()
			},
			wantErr: entitlement.ErrNotRedeemable,
		},
		{
			name: "inactive code",
			raw:  "DISABLED",
			setup: func(users *UsersMock, promos *PromosMock) {
				users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
				p := monthlyPromo("DISABLED")
				p.IsActive = false
				promos.On("GetPromoCode", mock.Anything, "DISABLED").Return(p, nil).Once()
			},
			wantErr: entitlement.ErrNotRedeemable,
		},
		{
			name: "cap exhausted on conditional increment",
			raw:  "FULL",
			setup: func(users *UsersMock, promos *PromosMock) {
				users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
				promos.On("GetPromoCode", mock.Anything, "FULL").Return(monthlyPromo("FULL"), nil).Once()
				promos.On("RedeemPromoCode", mock.Anything, "FULL", "u1", testNow).
					Return(entitlement.ErrNotRedeemable).Once()
			},
			wantErr: entitlement.ErrNotRedeemable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			promos := new(PromosMock)
			cache := new(CacheMock)
			pub := new(PublisherMock)
			svc := newService(users, promos, cache, pub)
			allowCache(cache)
			tt.setup(users, promos)

			_, err := svc.Redeem(context.Background(), "u1", tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
			users.AssertExpectations(t)
			promos.AssertExpectations(t)
		})
	}
}

func TestRedeemReleasesCodeWhenSaveFails(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	saveErr := errors.New("db down")
	users.On("GetUserByUID", mock.Anything, "u1").Return(trialUser("u1"), nil).Once()
	promos.On("GetPromoCode", mock.Anything, "ROLLME").Return(monthlyPromo("ROLLME"), nil).Once()
	promos.On("RedeemPromoCode", mock.Anything, "ROLLME", "u1", testNow).Return(nil).Once()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, mock.Anything).Return(saveErr).Once()
	promos.On("ReleasePromoCode", mock.Anything, "ROLLME", "u1").Return(nil).Once()

	_, err := svc.Redeem(context.Background(), "u1", "ROLLME")
	assert.ErrorIs(t, err, saveErr)
	promos.AssertExpectations(t)
}

func TestRedeemRetriesWholeFlowOnConflict(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	users.On("GetUserByUID", mock.Anything, "u1").
		Return(trialUser("u1"), nil).Once()
	users.On("GetUserByUID", mock.Anything, "u1").
		Return(trialUser("u1"), nil).Once()
	promos.On("GetPromoCode", mock.Anything, "RETRY").Return(monthlyPromo("RETRY"), nil).Twice()
	promos.On("RedeemPromoCode", mock.Anything, "RETRY", "u1", testNow).Return(nil).Twice()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, mock.Anything).
		Return(entitlement.ErrConcurrencyConflict).Once()
	promos.On("ReleasePromoCode", mock.Anything, "RETRY", "u1").Return(nil).Once()
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Redeem(context.Background(), "u1", "RETRY")
	require.NoError(t, err)
	users.AssertExpectations(t)
	promos.AssertExpectations(t)
}

func TestActivateFromPayment(t *testing.T) {
	users := new(UsersMock)
	promos := new(PromosMock)
	cache := new(CacheMock)
	pub := new(PublisherMock)
	svc := newService(users, promos, cache, pub)
	allowCache(cache)

	user := trialUser("u1")
	user.Subscription.Kind = models.KindMonthly
	user.Subscription.EndDate = testNow.AddDate(0, 0, 20)
	user.Subscription.AutoRenew = true

	users.On("GetUserByUID", mock.Anything, "u1").Return(user, nil).Once()
	var saved *models.User
	users.On("SaveUserSubscription", mock.Anything, mock.Anything, (*models.RedeemedCode)(nil)).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.User)
		}).Return(nil).Once()

	require.NoError(t, svc.ActivateFromPayment(context.Background(), "u1", models.KindYearly, 12))
	// Оплата не наслаивается: окно начинается заново с текущего момента
	assert.Equal(t, testNow, saved.Subscription.StartDate)
	assert.Equal(t, testNow.AddDate(0, 12, 0), saved.Subscription.EndDate)
	assert.Equal(t, models.KindYearly, saved.Subscription.Kind)
	assert.True(t, saved.Subscription.AutoRenew)
}
