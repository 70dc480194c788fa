package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/magabrotheeeer/vivu-travel/internal/entitlement"
	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// ===== BLOG METHODS =====

// CreateBlogPost вставляет новый пост и возвращает его ID.
func (s *Storage) CreateBlogPost(ctx context.Context, post models.BlogPost) (int, error) {
	const op = "storage.CreateBlogPost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	images, err := json.Marshal(post.Images)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var location []byte
	if post.Location != nil {
		location, err = json.Marshal(post.Location)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `INSERT INTO blog_posts (author_uid, title, content, destination, tags, images,
			      location, travel_start, travel_end, budget_amount, budget_currency,
			      rating, status, featured)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		post.AuthorUID, post.Title, post.Content, post.Destination, pq.Array(post.Tags),
		images, location, post.TravelStart, post.TravelEnd, post.BudgetAmount, post.BudgetCur,
		post.Rating, post.Status, post.Featured).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

const blogSelectColumns = `p.id, p.author_uid, u.name, p.title, p.content, p.destination,
				p.tags, p.images, p.location, p.travel_start, p.travel_end,
				p.budget_amount, p.budget_currency, p.rating, p.status, p.featured,
				p.view_count, p.share_count,
				(SELECT COUNT(*) FROM blog_likes l WHERE l.post_id = p.id),
				(SELECT COUNT(*) FROM blog_comments c WHERE c.post_id = p.id),
				p.created_at, p.updated_at`

func scanBlogPost(scanner interface{ Scan(dest ...any) error }) (*models.BlogPost, error) {
	var post models.BlogPost
	var images []byte
	var location []byte
	if err := scanner.Scan(&post.ID, &post.AuthorUID, &post.AuthorName, &post.Title,
		&post.Content, &post.Destination, pq.Array(&post.Tags), &images, &location,
		&post.TravelStart, &post.TravelEnd, &post.BudgetAmount, &post.BudgetCur,
		&post.Rating, &post.Status, &post.Featured, &post.ViewCount, &post.ShareCount,
		&post.LikeCount, &post.CommentCount, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &post.Images); err != nil {
			return nil, err
		}
	}
	if len(location) > 0 {
		if err := json.Unmarshal(location, &post.Location); err != nil {
			return nil, err
		}
	}
	return &post, nil
}

// ReadBlogPost возвращает пост по ID со счётчиками лайков и комментариев.
// Если пост не найден, возвращает entitlement.ErrNotFound.
func (s *Storage) ReadBlogPost(ctx context.Context, id int) (*models.BlogPost, error) {
	const op = "storage.ReadBlogPost"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + blogSelectColumns + `
			  FROM blog_posts p JOIN users u ON u.uid = p.author_uid
			  WHERE p.id = $1`
	post, err := scanBlogPost(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entitlement.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return post, nil
}

// ListBlogPosts возвращает опубликованные посты с учётом фильтра,
// избранные первыми, затем по убыванию даты создания.
func (s *Storage) ListBlogPosts(ctx context.Context, filter models.BlogFilter) ([]*models.BlogPost, error) {
	const op = "storage.ListBlogPosts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + blogSelectColumns + `
			  FROM blog_posts p JOIN users u ON u.uid = p.author_uid
			  WHERE p.status = 'published'`
	args := []any{}
	if filter.Destination != "" {
		args = append(args, "%"+filter.Destination+"%")
		query += fmt.Sprintf(" AND p.destination ILIKE $%d", len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(" AND $%d = ANY(p.tags)", len(args))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		query += fmt.Sprintf(" AND p.featured = $%d", len(args))
	}
	if filter.AuthorUID != "" {
		args = append(args, filter.AuthorUID)
		query += fmt.Sprintf(" AND p.author_uid = $%d", len(args))
	}
	query += " ORDER BY p.featured DESC, p.created_at DESC"
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return s.queryBlogPosts(ctx, op, query, args...)
}

// FeedBlogPosts возвращает опубликованные посты, ранжированные по
// вовлечённости: комментарии весят втрое, репосты вдвое, лайки по единице.
func (s *Storage) FeedBlogPosts(ctx context.Context, limit, offset int) ([]*models.BlogPost, error) {
	const op = "storage.FeedBlogPosts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + blogSelectColumns + `
			  FROM blog_posts p JOIN users u ON u.uid = p.author_uid
			  WHERE p.status = 'published'
			  ORDER BY (SELECT COUNT(*) FROM blog_comments c WHERE c.post_id = p.id) * 3
			  	+ (SELECT COUNT(*) FROM blog_likes l WHERE l.post_id = p.id)
			  	+ p.share_count * 2 DESC, p.created_at DESC
			  LIMIT $1 OFFSET $2`
	return s.queryBlogPosts(ctx, op, query, limit, offset)
}

func (s *Storage) queryBlogPosts(ctx context.Context, op, query string, args ...any) ([]*models.BlogPost, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BlogPost
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateBlogPost обновляет пост и возвращает количество обновлённых строк.
// Обновление проходит только для автора поста.
func (s *Storage) UpdateBlogPost(ctx context.Context, post models.BlogPost) (int, error) {
	const op = "storage.UpdateBlogPost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	images, err := json.Marshal(post.Images)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var location []byte
	if post.Location != nil {
		location, err = json.Marshal(post.Location)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	query := `UPDATE blog_posts
			  SET title = $1, content = $2, destination = $3, tags = $4, images = $5,
			      location = $6, travel_start = $7, travel_end = $8, budget_amount = $9,
			      budget_currency = $10, rating = $11, status = $12, updated_at = now()
			  WHERE id = $13 AND author_uid = $14`
	result, err := s.DB.ExecContext(ctx, query,
		post.Title, post.Content, post.Destination, pq.Array(post.Tags), images, location,
		post.TravelStart, post.TravelEnd, post.BudgetAmount, post.BudgetCur, post.Rating,
		post.Status, post.ID, post.AuthorUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveBlogPost удаляет пост автора и возвращает количество удалённых строк.
// При authorUID == "" удаление выполняется без проверки автора (администратор).
func (s *Storage) RemoveBlogPost(ctx context.Context, id int, authorUID string) (int, error) {
	const op = "storage.RemoveBlogPost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM blog_posts WHERE id = $1 AND ($2 = '' OR author_uid = $2::uuid)`
	result, err := s.DB.ExecContext(ctx, query, id, authorUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// IncrementViewCount увеличивает счётчик просмотров поста.
func (s *Storage) IncrementViewCount(ctx context.Context, id int) error {
	const op = "storage.IncrementViewCount"
	_, err := s.DB.ExecContext(ctx,
		`UPDATE blog_posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IncrementShareCount увеличивает счётчик репостов поста.
func (s *Storage) IncrementShareCount(ctx context.Context, id int) error {
	const op = "storage.IncrementShareCount"
	_, err := s.DB.ExecContext(ctx,
		`UPDATE blog_posts SET share_count = share_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ToggleLike переключает лайк пользователя на посте.
// Возвращает true, если после вызова лайк установлен.
func (s *Storage) ToggleLike(ctx context.Context, postID int, userUID string) (bool, error) {
	const op = "storage.ToggleLike"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM blog_likes WHERE post_id = $1 AND user_uid = $2`, postID, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return false, nil
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO blog_likes (post_id, user_uid) VALUES ($1, $2)`, postID, userUID)
	if err != nil {
		if isUniqueViolation(err) {
			return true, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// AddComment добавляет комментарий к посту и возвращает его ID.
func (s *Storage) AddComment(ctx context.Context, comment models.BlogComment) (int, error) {
	const op = "storage.AddComment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO blog_comments (post_id, user_uid, content)
			  VALUES ($1, $2, $3) RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		comment.PostID, comment.UserUID, comment.Content).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListComments возвращает комментарии поста в порядке добавления.
func (s *Storage) ListComments(ctx context.Context, postID int) ([]*models.BlogComment, error) {
	const op = "storage.ListComments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT c.id, c.post_id, c.user_uid, u.name, c.content, c.created_at
			  FROM blog_comments c JOIN users u ON u.uid = c.user_uid
			  WHERE c.post_id = $1 ORDER BY c.created_at`
	rows, err := s.DB.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BlogComment
	for rows.Next() {
		var c models.BlogComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserUID, &c.UserName, &c.Content,
			&c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountBlogPosts возвращает количество опубликованных постов.
func (s *Storage) CountBlogPosts(ctx context.Context) (int, error) {
	const op = "storage.CountBlogPosts"
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blog_posts WHERE status = 'published'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
