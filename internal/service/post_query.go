package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillpost/internal/db"
	"gorm.io/gorm"
)

const (
	defaultPageSize  = 10
	maxPageSize      = 50
	defaultTopPosts  = 5
	maxTrendingPosts = 50
)

// SortOrder selects how listings are ordered.
type SortOrder string

const (
	SortLatest   SortOrder = "latest"
	SortPopular  SortOrder = "popular"
	SortTrending SortOrder = "trending"
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	return o == SortLatest || o == SortPopular || o == SortTrending
}

// PostQuery describes filters for listing posts.
type PostQuery struct {
	Page     int
	Limit    int
	Category db.Category
	Search   string
	Sort     SortOrder
	// Status restricts the listing. Empty means published, unless AuthorID or AnyStatus is set.
	Status    db.PostStatus
	AuthorID  uint
	AnyStatus bool
}

// normalized fills defaults and clamps the page size.
func (q PostQuery) normalized() PostQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if !q.Sort.Valid() {
		q.Sort = SortLatest
	}
	q.Search = strings.TrimSpace(q.Search)
	if q.Status == "" && q.AuthorID == 0 && !q.AnyStatus {
		q.Status = db.StatusPublished
	}
	return q
}

// Pagination is the paging block returned with every listing.
type Pagination struct {
	Page       int   `json:"currentPage"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination derives page counts from total: TotalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	if limit <= 0 {
		limit = defaultPageSize
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Total:      total,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// AuthorSummary is the public face of a post author.
type AuthorSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// PostSummary is a post without its body, used by list views.
type PostSummary struct {
	ID            uint          `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       string        `json:"excerpt"`
	Category      db.Category   `json:"category"`
	Tags          []string      `json:"tags"`
	FeaturedImage string        `json:"featuredImage,omitempty"`
	Status        db.PostStatus `json:"status"`
	Author        AuthorSummary `json:"author"`
	ReadingTime   int           `json:"readTime"`
	Views         uint64        `json:"views"`
	Likes         int64         `json:"likesCount"`
	Comments      int64         `json:"commentsCount"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Summarize converts a stored post to its list representation.
func Summarize(post db.Post) PostSummary {
	return PostSummary{
		ID:            post.ID,
		Title:         post.Title,
		Slug:          post.Slug,
		Excerpt:       post.Excerpt,
		Category:      post.Category,
		Tags:          post.TagNames(),
		FeaturedImage: post.FeaturedImage,
		Status:        post.Status,
		Author: AuthorSummary{
			ID:        post.User.ID,
			FirstName: post.User.FirstName,
			LastName:  post.User.LastName,
		},
		ReadingTime: post.ReadingTime,
		Views:       post.Views,
		Likes:       post.LikeCount,
		Comments:    post.CommentCount,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
}

// PostPage is one page of a listing.
type PostPage struct {
	Posts      []PostSummary `json:"posts"`
	Pagination Pagination    `json:"pagination"`
}

// CategoryCount pairs a category with its number of published posts.
type CategoryCount struct {
	Category db.Category `json:"category"`
	Count    int64       `json:"count"`
}

// List returns one page of posts matching q.
func (s *PostService) List(ctx context.Context, q PostQuery) (*PostPage, error) {
	q = q.normalized()

	var total int64
	countQuery := s.applyFilters(s.db.WithContext(ctx).Model(&db.Post{}), q)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	var posts []db.Post
	dataQuery := s.db.WithContext(ctx).Model(&db.Post{}).
		Preload("Tags").
		Preload("User")
	dataQuery = applySort(s.applyFilters(dataQuery, q), q.Sort)

	offset := (q.Page - 1) * q.Limit
	if err := dataQuery.Limit(q.Limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	summaries := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, Summarize(post))
	}

	return &PostPage{
		Posts:      summaries,
		Pagination: NewPagination(q.Page, q.Limit, total),
	}, nil
}

// ListByCategory lists published posts of one category.
func (s *PostService) ListByCategory(ctx context.Context, category db.Category, q PostQuery) (*PostPage, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q: %w", category, ErrValidation)
	}
	q.Category = category
	q.Status = db.StatusPublished
	q.AuthorID = 0
	q.AnyStatus = false
	return s.List(ctx, q)
}

// ListMine lists every post owned by actor, optionally narrowed to one status.
func (s *PostService) ListMine(ctx context.Context, actor Actor, q PostQuery) (*PostPage, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	q.AuthorID = actor.UserID
	q.AnyStatus = q.Status == ""
	return s.List(ctx, q)
}

// ListForModeration is the admin listing; it may request any status.
func (s *PostService) ListForModeration(ctx context.Context, admin Actor, q PostQuery) (*PostPage, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	q.AnyStatus = q.Status == ""
	return s.List(ctx, q)
}

// Trending returns the top published posts by unique visitors, likes and comments.
func (s *PostService) Trending(ctx context.Context, limit int) ([]PostSummary, error) {
	if limit <= 0 {
		limit = defaultTopPosts
	}
	if limit > maxTrendingPosts {
		limit = maxTrendingPosts
	}

	page, err := s.List(ctx, PostQuery{
		Page:   1,
		Limit:  limit,
		Sort:   SortTrending,
		Status: db.StatusPublished,
	})
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// Categories returns every category with its published post count, zero counts included.
func (s *PostService) Categories(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Select("category, COUNT(*) AS count").
		Where("status = ?", db.StatusPublished).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}

	counts := make(map[db.Category]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}

	result := make([]CategoryCount, 0, len(db.Categories))
	for _, category := range db.Categories {
		result = append(result, CategoryCount{Category: category, Count: counts[category]})
	}
	return result, nil
}

func (s *PostService) applyFilters(query *gorm.DB, q PostQuery) *gorm.DB {
	if q.AuthorID != 0 {
		query = query.Where("posts.user_id = ?", q.AuthorID)
	}

	if q.Status != "" {
		query = query.Where("posts.status = ?", q.Status)
	}

	if q.Category != "" {
		query = query.Where("posts.category = ?", q.Category)
	}

	if q.Search != "" {
		pattern := likePattern(q.Search)
		tagged := s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where(`LOWER(tags.name) LIKE ? ESCAPE '\'`, pattern)

		query = query.Where(
			`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\' OR posts.id IN (?))`,
			pattern, pattern, tagged,
		)
	}

	return query
}

func applySort(query *gorm.DB, sort SortOrder) *gorm.DB {
	switch sort {
	case SortPopular:
		return query.
			Order("posts.views DESC").
			Order("posts.like_count DESC").
			Order("posts.id DESC")
	case SortTrending:
		return query.
			Select("posts.*").
			Joins("LEFT JOIN post_statistics ON post_statistics.post_id = posts.id").
			Order("COALESCE(post_statistics.unique_visitors, 0) DESC").
			Order("posts.like_count DESC").
			Order("posts.comment_count DESC").
			Order("posts.id DESC")
	default:
		return query.
			Order("posts.published_at DESC").
			Order("posts.created_at DESC").
			Order("posts.id DESC")
	}
}
