package db

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPending   PostStatus = "pending"
	StatusPublished PostStatus = "published"
	StatusRejected  PostStatus = "rejected"
	StatusHidden    PostStatus = "hidden"
)

// PostStatuses lists every status in display order.
var PostStatuses = []PostStatus{StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusHidden}

// Valid reports whether s is one of the five known statuses.
func (s PostStatus) Valid() bool {
	for _, status := range PostStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Category is the closed set of post categories.
type Category string

const (
	CategoryTechnology    Category = "Technology"
	CategoryLifestyle     Category = "Lifestyle"
	CategoryTravel        Category = "Travel"
	CategoryFood          Category = "Food"
	CategoryHealth        Category = "Health"
	CategoryBusiness      Category = "Business"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryScience       Category = "Science"
	CategoryOther         Category = "Other"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryTechnology,
	CategoryLifestyle,
	CategoryTravel,
	CategoryFood,
	CategoryHealth,
	CategoryBusiness,
	CategoryEducation,
	CategoryEntertainment,
	CategoryScience,
	CategoryOther,
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	for _, category := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Post 定义了文章模型
type Post struct {
	gorm.Model
	Title         string     `gorm:"size:200;not null" json:"title"`
	Slug          string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       string     `gorm:"size:300" json:"excerpt"`
	Category      Category   `gorm:"size:50;index" json:"category"`
	FeaturedImage string     `json:"featuredImage,omitempty"`
	Status        PostStatus `gorm:"size:20;index;not null;default:draft" json:"status"`
	ReadingTime   int        `json:"readTime"`

	UserID uint  `gorm:"index;not null" json:"authorId"`
	User   User  `json:"author"`
	Tags   []Tag `gorm:"many2many:post_tags;" json:"tags"`

	// Engagement counters. Only the engagement service writes them.
	Views        uint64 `gorm:"default:0;not null" json:"views"`
	LikeCount    int64  `gorm:"default:0;not null" json:"likesCount"`
	CommentCount int64  `gorm:"default:0;not null" json:"commentsCount"`
	Shares       uint64 `gorm:"default:0;not null" json:"shares"`

	ApprovedBy      *uint      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`
	PublishedAt     *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}

// TagNames returns the names of the preloaded tags.
func (p Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// PostLike records that a user likes a post; the rows of a post form its like set.
type PostLike struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user;index"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (PostLike) TableName() string {
	return "post_likes"
}
