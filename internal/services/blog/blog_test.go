package blog

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

func (m *RepoMock) CreateBlogPost(ctx context.Context, post models.BlogPost) (int, error) {
	args := m.Called(ctx, post)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ReadBlogPost(ctx context.Context, id int) (*models.BlogPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}
func (m *RepoMock) ListBlogPosts(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlogPost), args.Error(1)
}
func (m *RepoMock) FeedBlogPosts(ctx context.Context, limit, offset int) ([]*models.BlogPost, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlogPost), args.Error(1)
}
func (m *RepoMock) UpdateBlogPost(ctx context.Context, post models.BlogPost) (int, error) {
	args := m.Called(ctx, post)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RemoveBlogPost(ctx context.Context, id int, authorUID string) (int, error) {
	args := m.Called(ctx, id, authorUID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) IncrementViewCount(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) IncrementShareCount(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) ToggleLike(ctx context.Context, postID int, userUID string) (bool, error) {
	args := m.Called(ctx, postID, userUID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) AddComment(ctx context.Context, comment models.BlogComment) (int, error) {
	args := m.Called(ctx, comment)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListComments(ctx context.Context, postID int) ([]*models.BlogComment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BlogComment), args.Error(1)
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

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func allowCache(cache *CacheMock) {
	cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Maybe()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func validPostRequest() models.DummyBlogPost {
	return models.DummyBlogPost{
		Title:       "A week in Da Nang",
		Content:     "long enough content",
		Destination: "Da Nang",
		Status:      models.PostPublished,
		TravelStart: "2025-05-01T00:00:00Z",
		TravelEnd:   "2025-05-08T00:00:00Z",
	}
}

func TestCreate(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())
	allowCache(cache)

	var created models.BlogPost
	repo.On("CreateBlogPost", mock.Anything, mock.MatchedBy(func(p models.BlogPost) bool {
		created = p
		return p.AuthorUID == "u1"
	})).Return(7, nil).Once()

	id, err := svc.Create(context.Background(), "u1", validPostRequest())
	require.NoError(t, err)
	assert.Equal(t, 7, id)
	require.NotNil(t, created.TravelStart)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), created.TravelStart.UTC())
	repo.AssertExpectations(t)
}

func TestCreateDefaultsToDraft(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())
	allowCache(cache)

	req := validPostRequest()
	req.Status = ""
	repo.On("CreateBlogPost", mock.Anything, mock.MatchedBy(func(p models.BlogPost) bool {
		return p.Status == models.PostDraft
	})).Return(1, nil).Once()

	_, err := svc.Create(context.Background(), "u1", req)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreateBadTravelDates(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	req := validPostRequest()
	req.TravelStart = "next tuesday"
	_, err := svc.Create(context.Background(), "u1", req)
	assert.ErrorIs(t, err, entitlement.ErrInvalidInput)
	repo.AssertNotCalled(t, "CreateBlogPost")
}

func TestReadIncrementsViews(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	repo.On("ReadBlogPost", mock.Anything, 5).
		Return(&models.BlogPost{ID: 5, Title: "post"}, nil).Once()
	repo.On("IncrementViewCount", mock.Anything, 5).Return(nil).Once()

	post, err := svc.Read(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, post.ID)
	repo.AssertExpectations(t)
}

func TestFeedUsesCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	cache.On("Get", mock.Anything, "blogfeed:20:0", mock.Anything).Return(true, nil).Once()

	feed, err := svc.Feed(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Nil(t, feed)
	repo.AssertNotCalled(t, "FeedBlogPosts")
}

func TestFeedFallsBackToRepo(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	posts := []*models.BlogPost{{ID: 1}, {ID: 2}}
	cache.On("Get", mock.Anything, "blogfeed:20:0", mock.Anything).Return(false, nil).Once()
	repo.On("FeedBlogPosts", mock.Anything, 20, 0).Return(posts, nil).Once()
	cache.On("Set", mock.Anything, "blogfeed:20:0", posts, 5*time.Minute).Return(nil).Once()

	feed, err := svc.Feed(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
	cache.AssertExpectations(t)
}

func TestUpdateForeignPost(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())
	allowCache(cache)

	repo.On("UpdateBlogPost", mock.Anything, mock.Anything).Return(0, nil).Once()

	err := svc.Update(context.Background(), 5, "intruder", validPostRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		wantOwner string
	}{
		{name: "author removes own post", role: "user", wantOwner: "u1"},
		{name: "admin removes any post", role: "admin", wantOwner: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := New(repo, cache, newNoopLogger())
			allowCache(cache)

			repo.On("RemoveBlogPost", mock.Anything, 5, tt.wantOwner).Return(1, nil).Once()
			require.NoError(t, svc.Remove(context.Background(), 5, "u1", tt.role))
			repo.AssertExpectations(t)
		})
	}
}

func TestLikeAndComment(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, cache, newNoopLogger())

	repo.On("ReadBlogPost", mock.Anything, 5).
		Return(&models.BlogPost{ID: 5}, nil).Twice()
	repo.On("ToggleLike", mock.Anything, 5, "u1").Return(true, nil).Once()
	repo.On("AddComment", mock.Anything, mock.MatchedBy(func(c models.BlogComment) bool {
		return c.PostID == 5 && c.Content == "nice"
	})).Return(9, nil).Once()

	liked, err := svc.Like(context.Background(), 5, "u1")
	require.NoError(t, err)
	assert.True(t, liked)

	id, err := svc.Comment(context.Background(), 5, "u1", models.DummyBlogComment{Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, 9, id)

	repo.On("ReadBlogPost", mock.Anything, 404).
		Return(nil, entitlement.ErrNotFound).Once()
	_, err = svc.Like(context.Background(), 404, "u1")
	assert.ErrorIs(t, err, entitlement.ErrNotFound)
}
