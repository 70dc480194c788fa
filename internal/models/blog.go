package models

import "time"

// Статусы блог-поста.
const (
	PostDraft     = "draft"
	PostPublished = "published"
)

// BlogImage изображение внутри блог-поста.
type BlogImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// BlogLocation географическая привязка поста.
type BlogLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`
}

// BlogPost представляет пост тревел-блога.
type BlogPost struct {
	ID           int           `json:"id"`
	AuthorUID    string        `json:"author_uid"`
	AuthorName   string        `json:"author_name,omitempty"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Destination  string        `json:"destination"`
	Tags         []string      `json:"tags,omitempty"`
	Images       []BlogImage   `json:"images,omitempty"`
	Location     *BlogLocation `json:"location,omitempty"`
	TravelStart  *time.Time    `json:"travel_start,omitempty"`
	TravelEnd    *time.Time    `json:"travel_end,omitempty"`
	BudgetAmount int64         `json:"budget_amount,omitempty"`
	BudgetCur    string        `json:"budget_currency,omitempty"`
	Rating       int           `json:"rating,omitempty"` // Оценка путешествия от 1 до 5
	Status       string        `json:"status"`
	Featured     bool          `json:"featured"`
	ViewCount    int           `json:"view_count"`
	LikeCount    int           `json:"like_count"`
	CommentCount int           `json:"comment_count"`
	ShareCount   int           `json:"share_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// BlogComment комментарий к посту.
type BlogComment struct {
	ID         int       `json:"id"`
	PostID     int       `json:"post_id"`
	UserUID    string    `json:"user_uid"`
	UserName   string    `json:"user_name,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlogFilter параметры выборки постов.
type BlogFilter struct {
	Destination string // Фильтр по направлению (подстрока, без учёта регистра)
	Tag         string // Фильтр по тегу
	Featured    *bool  // Только избранные
	AuthorUID   string // Посты конкретного автора
	Limit       int
	Offset      int
}

// DummyBlogPost используется для приёма данных поста из JSON-запроса.
type DummyBlogPost struct {
	Title        string        `json:"title" validate:"required,min=5,max=200"`
	Content      string        `json:"content" validate:"required,min=100"`
	Destination  string        `json:"destination" validate:"required,min=2,max=100"`
	Tags         []string      `json:"tags" validate:"omitempty,max=10,dive,max=50"`
	Images       []BlogImage   `json:"images" validate:"omitempty,max=10"`
	Location     *BlogLocation `json:"location"`
	TravelStart  string        `json:"travel_start" validate:"omitempty"` // RFC3339
	TravelEnd    string        `json:"travel_end" validate:"omitempty"`
	BudgetAmount int64         `json:"budget_amount" validate:"omitempty,gte=0"`
	BudgetCur    string        `json:"budget_currency" validate:"omitempty,oneof=VND USD EUR"`
	Rating       int           `json:"rating" validate:"omitempty,min=1,max=5"`
	Status       string        `json:"status" validate:"omitempty,oneof=draft published"`
}

// DummyBlogComment используется для приёма комментария из JSON-запроса.
type DummyBlogComment struct {
	Content string `json:"content" validate:"required,min=1,max=1000"`
}
