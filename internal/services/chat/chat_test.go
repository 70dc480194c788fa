package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

type EntitlementsMock struct{ mock.Mock }

func (m *EntitlementsMock) ConsumeSearch(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

type LLMMock struct{ mock.Mock }

func (m *LLMMock) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type PlacesMock struct{ mock.Mock }

func (m *PlacesMock) SearchNearby(ctx context.Context, loc models.Location, category, keyword string, radius int) ([]models.Place, error) {
	args := m.Called(ctx, loc, category, keyword, radius)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Place), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(ents *EntitlementsMock, llm *LLMMock, places *PlacesMock, cache *CacheMock) *Service {
	svc := New(ents, llm, places, cache, 30*time.Minute, newNoopLogger())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func allowCache(cache *CacheMock) {
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestSend(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Người dùng hỏi: Đà Nẵng có gì hay?")
	})).Return("Đà Nẵng có biển Mỹ Khê và Bà Nà Hills! 🏖️", nil)

	chatID, reply, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message: "Đà Nẵng có gì hay?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chatID)
	assert.Equal(t, "Đà Nẵng có biển Mỹ Khê và Bà Nà Hills! 🏖️", reply.Reply)
	assert.Empty(t, reply.NearbyPlaces)
	places.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNotEntitled(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	svc := newService(ents, llm, places, cache)

	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(entitlement.ErrNotEntitled)

	_, _, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{Message: "hi"})
	require.ErrorIs(t, err, entitlement.ErrNotEntitled)
	llm.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything)
}

func TestSendWithNearbySearch(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	loc := &models.Location{Lat: 16.06, Lng: 108.22}
	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "LOCATION_CONTEXT")
	})).Return("Để tôi tìm quán phở gần bạn nhé! [SEARCH_NEARBY:restaurant|pho]", nil)

	found := []models.Place{
		{Name: "Phở Hồng", Vicinity: "10 Lê Duẩn", Rating: 4.5},
		{Name: "Phở Bắc Hải", Vicinity: "185 Trần Phú", Rating: 4.2},
	}
	places.On("SearchNearby", mock.Anything, *loc, "restaurant", "pho", 0).Return(found, nil)

	_, reply, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message:  "Quán phở nào ngon gần đây?",
		Location: loc,
	})
	require.NoError(t, err)
	assert.NotContains(t, reply.Reply, "[SEARCH_NEARBY")
	assert.Contains(t, reply.Reply, "Để tôi tìm quán phở gần bạn nhé!")
	assert.Contains(t, reply.Reply, "Phở Hồng")
	assert.Contains(t, reply.Reply, "⭐ 4.5")
	assert.Len(t, reply.NearbyPlaces, 2)
}

func TestSendCapsNearbyPlaces(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	loc := &models.Location{Lat: 16.06, Lng: 108.22}
	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return("[SEARCH_NEARBY:cafe]", nil)

	found := make([]models.Place, 15)
	for i := range found {
		found[i] = models.Place{Name: "Café"}
	}
	places.On("SearchNearby", mock.Anything, *loc, "cafe", "", 0).Return(found, nil)

	_, reply, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message:  "Café gần đây?",
		Location: loc,
	})
	require.NoError(t, err)
	assert.Len(t, reply.NearbyPlaces, 10)
	assert.Contains(t, reply.Reply, "15 quán café")
}

func TestSendNearbySearchFails(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	loc := &models.Location{Lat: 16.06, Lng: 108.22}
	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return("Tìm nhà hàng nhé! [SEARCH_NEARBY:restaurant]", nil)
	places.On("SearchNearby", mock.Anything, *loc, "restaurant", "", 0).
		Return(nil, errors.New("places api down"))

	_, reply, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message:  "Nhà hàng gần đây?",
		Location: loc,
	})
	require.NoError(t, err)
	assert.NotContains(t, reply.Reply, "[SEARCH_NEARBY")
	assert.Contains(t, reply.Reply, "Xin lỗi, có lỗi khi tìm kiếm địa điểm")
	assert.Empty(t, reply.NearbyPlaces)
}

func TestSendMarkerWithoutLocation(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.Anything).
		Return("Tôi cần vị trí của bạn. [SEARCH_NEARBY:cafe]", nil)

	_, reply, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message: "Café gần đây?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tôi cần vị trí của bạn.", reply.Reply)
	places.AssertNotCalled(t, "SearchNearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendUsesChatHistory(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	svc := newService(ents, llm, places, cache)

	chatID := "2c9a1f56-3f6f-4f1d-9f6e-6b1f9b0a1234"
	history := models.ChatContext{Messages: []models.ChatTurn{
		{Role: "user", Content: "Tôi muốn đi Huế"},
		{Role: "assistant", Content: "Huế tuyệt lắm!"},
	}}
	cache.On("Get", mock.Anything, "chatctx:user-1:"+chatID, mock.Anything).
		Run(func(args mock.Arguments) {
			*(args.Get(2).(*models.ChatContext)) = history
		}).Return(true, nil)
	cache.On("Set", mock.Anything, "chatctx:user-1:"+chatID,
		mock.MatchedBy(func(v any) bool {
			ctxVal, ok := v.(*models.ChatContext)
			return ok && len(ctxVal.Messages) == 4
		}), 30*time.Minute).Return(nil)

	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "LỊCH SỬ HỘI THOẠI") &&
			strings.Contains(prompt, "Tôi muốn đi Huế")
	})).Return("Bạn nên ghé Đại Nội! 🏯", nil)

	gotChatID, _, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{
		Message: "Nên đi đâu trước?",
		ChatID:  chatID,
	})
	require.NoError(t, err)
	assert.Equal(t, chatID, gotChatID)
	cache.AssertExpectations(t)
}

func TestSendLLMError(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	allowCache(cache)
	svc := newService(ents, llm, places, cache)

	ents.On("ConsumeSearch", mock.Anything, "user-1").Return(nil)
	llm.On("GenerateContent", mock.Anything, mock.Anything).Return("", errors.New("model unavailable"))

	_, _, err := svc.Send(context.Background(), "user-1", models.DummyChatMessage{Message: "hi"})
	require.Error(t, err)
}

func TestNearby(t *testing.T) {
	ents := new(EntitlementsMock)
	llm := new(LLMMock)
	places := new(PlacesMock)
	cache := new(CacheMock)
	svc := newService(ents, llm, places, cache)

	loc := models.Location{Lat: 10.77, Lng: 106.69}
	places.On("SearchNearby", mock.Anything, loc, "lodging", "", 5000).
		Return([]models.Place{{Name: "Khách sạn Rex"}}, nil)

	got, err := svc.Nearby(context.Background(), models.DummyNearby{
		Location: loc, Category: "lodging", Radius: 5000,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Khách sạn Rex", got[0].Name)
}
