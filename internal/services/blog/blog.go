// Package blog содержит бизнес-логику тревел-блога: посты, лайки,
// комментарии и ленту по вовлечённости с кешированием в Redis.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// ErrForbidden пользователь не автор поста и не администратор.
var ErrForbidden = errors.New("not an author of the post")

// Repository определяет методы для работы с блогом в хранилище.
type Repository interface {
	CreateBlogPost(ctx context.Context, post models.BlogPost) (int, error)
	ReadBlogPost(ctx context.Context, id int) (*models.BlogPost, error)
	ListBlogPosts(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, error)
	FeedBlogPosts(ctx context.Context, limit, offset int) ([]*models.BlogPost, error)
	UpdateBlogPost(ctx context.Context, post models.BlogPost) (int, error)
	RemoveBlogPost(ctx context.Context, id int, authorUID string) (int, error)
	IncrementViewCount(ctx context.Context, id int) error
	IncrementShareCount(ctx context.Context, id int) error
	ToggleLike(ctx context.Context, postID int, userUID string) (bool, error)
	AddComment(ctx context.Context, comment models.BlogComment) (int, error)
	ListComments(ctx context.Context, postID int) ([]*models.BlogComment, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

const feedCacheTTL = 5 * time.Minute

// Service реализует операции тревел-блога.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *Service) postFromRequest(req models.DummyBlogPost) (models.BlogPost, error) {
	post := models.BlogPost{
		Title:        req.Title,
		Content:      req.Content,
		Destination:  req.Destination,
		Tags:         req.Tags,
		Images:       req.Images,
		Location:     req.Location,
		BudgetAmount: req.BudgetAmount,
		BudgetCur:    req.BudgetCur,
		Rating:       req.Rating,
		Status:       req.Status,
	}
	if post.Status == "" {
		post.Status = models.PostDraft
	}
	if req.TravelStart != "" {
		start, err := time.Parse(time.RFC3339, req.TravelStart)
		if err != nil {
			return post, entitlement.ErrInvalidInput
		}
		post.TravelStart = &start
	}
	if req.TravelEnd != "" {
		end, err := time.Parse(time.RFC3339, req.TravelEnd)
		if err != nil {
			return post, entitlement.ErrInvalidInput
		}
		post.TravelEnd = &end
	}
	return post, nil
}

// Create создает новый пост и возвращает его ID.
func (s *Service) Create(ctx context.Context, authorUID string, req models.DummyBlogPost) (int, error) {
	post, err := s.postFromRequest(req)
	if err != nil {
		return 0, err
	}
	post.AuthorUID = authorUID

	id, err := s.repo.CreateBlogPost(ctx, post)
	if err != nil {
		return 0, err
	}
	s.log.Info("created blog post", slog.Int("id", id), slog.String("author_uid", authorUID))
	s.invalidateFeed(ctx)
	return id, nil
}

// Read возвращает пост и увеличивает счётчик просмотров.
func (s *Service) Read(ctx context.Context, id int) (*models.BlogPost, error) {
	post, err := s.repo.ReadBlogPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn("failed to increment view count", slog.Int("id", id), slog.Any("err", err))
	}
	return post, nil
}

// List возвращает опубликованные посты по фильтру.
func (s *Service) List(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.ListBlogPosts(ctx, filter)
}

// Feed возвращает посты, ранжированные по вовлечённости, из кеша
// или хранилища. Лента кешируется на пять минут, поэтому счётчики
// в ней могут немного отставать.
func (s *Service) Feed(ctx context.Context, limit, offset int) ([]*models.BlogPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var cached []*models.BlogPost
	cacheKey := fmt.Sprintf("blogfeed:%d:%d", limit, offset)
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read feed from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return cached, nil
	}

	feed, err := s.repo.FeedBlogPosts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cacheKey, feed, feedCacheTTL); err != nil {
		s.log.Warn("failed to cache feed", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return feed, nil
}

// Update обновляет пост. Обновить пост может только его автор.
func (s *Service) Update(ctx context.Context, id int, authorUID string, req models.DummyBlogPost) error {
	post, err := s.postFromRequest(req)
	if err != nil {
		return err
	}
	post.ID = id
	post.AuthorUID = authorUID

	rowsAffected, err := s.repo.UpdateBlogPost(ctx, post)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrForbidden
	}
	s.invalidateFeed(ctx)
	return nil
}

// Remove удаляет пост. Автор удаляет свои посты, администратор — любые.
func (s *Service) Remove(ctx context.Context, id int, userUID, role string) error {
	authorUID := userUID
	if role == "admin" {
		authorUID = ""
	}
	rowsAffected, err := s.repo.RemoveBlogPost(ctx, id, authorUID)
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrForbidden
	}
	s.invalidateFeed(ctx)
	return nil
}

// Like переключает лайк пользователя, возвращает итоговое состояние.
func (s *Service) Like(ctx context.Context, postID int, userUID string) (bool, error) {
	if _, err := s.repo.ReadBlogPost(ctx, postID); err != nil {
		return false, err
	}
	return s.repo.ToggleLike(ctx, postID, userUID)
}

// Comment добавляет комментарий к посту и возвращает его ID.
func (s *Service) Comment(ctx context.Context, postID int, userUID string, req models.DummyBlogComment) (int, error) {
	if _, err := s.repo.ReadBlogPost(ctx, postID); err != nil {
		return 0, err
	}
	return s.repo.AddComment(ctx, models.BlogComment{
		PostID:  postID,
		UserUID: userUID,
		Content: req.Content,
	})
}

// Comments возвращает комментарии поста.
func (s *Service) Comments(ctx context.Context, postID int) ([]*models.BlogComment, error) {
	return s.repo.ListComments(ctx, postID)
}

// Share увеличивает счётчик репостов.
func (s *Service) Share(ctx context.Context, postID int) error {
	if _, err := s.repo.ReadBlogPost(ctx, postID); err != nil {
		return err
	}
	return s.repo.IncrementShareCount(ctx, postID)
}

func (s *Service) invalidateFeed(ctx context.Context) {
	// Инвалидируется только первая страница, остальные дотянутся по TTL
	cacheKey := "blogfeed:20:0"
	if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
		s.log.Warn("failed to invalidate feed cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
}
