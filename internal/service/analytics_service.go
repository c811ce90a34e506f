package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillpost/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsService tracks unique visitors per post and builds the admin dashboard.
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordPostView counts a page view for visitorID and, the first time that visitor is
// seen on the post, a unique visitor. The unique-visitor counter drives trending order.
func (s *AnalyticsService) RecordPostView(ctx context.Context, postID uint, visitorID string, now time.Time) (*db.PostStatistic, error) {
	if visitorID == "" || postID == 0 {
		return nil, errors.New("invalid visitor or post id")
	}

	var stats db.PostStatistic

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visit := db.PostVisit{
			PostID:       postID,
			VisitorID:    visitorID,
			LastViewedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		if !isNewVisitor {
			if err := tx.Model(&db.PostVisit{}).
				Where("post_id = ? AND visitor_id = ?", postID, visitorID).
				Update("last_viewed_at", now).Error; err != nil {
				return err
			}
		}

		statsResult := tx.Where("post_id = ?", postID).First(&stats)
		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.PostStatistic{PostID: postID}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		updates := map[string]interface{}{
			"page_views":     gorm.Expr("page_views + ?", 1),
			"last_viewed_at": now,
		}
		if isNewVisitor {
			updates["unique_visitors"] = gorm.Expr("unique_visitors + ?", 1)
		}
		if err := tx.Model(&db.PostStatistic{}).Where("id = ?", stats.ID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&stats, stats.ID).Error
	}); err != nil {
		return nil, fmt.Errorf("record post view: %w", err)
	}

	return &stats, nil
}

// PostStatsMap returns visitor statistics keyed by post id. Posts never viewed are absent.
func (s *AnalyticsService) PostStatsMap(ctx context.Context, postIDs []uint) (map[uint]*db.PostStatistic, error) {
	result := make(map[uint]*db.PostStatistic, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var stats []db.PostStatistic
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&stats).Error; err != nil {
		return nil, err
	}
	for i := range stats {
		result[stats[i].PostID] = &stats[i]
	}
	return result, nil
}

// StatusCount pairs a post status with how many posts are in it.
type StatusCount struct {
	Status db.PostStatus `json:"status"`
	Count  int64         `json:"count"`
}

// TopPostStat describes one of the most viewed posts.
type TopPostStat struct {
	PostID         uint   `json:"postId"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Views          uint64 `json:"views"`
	Likes          int64  `json:"likesCount"`
	Comments       int64  `json:"commentsCount"`
	UniqueVisitors uint64 `json:"uniqueVisitors"`
}

// Dashboard is the admin analytics overview.
type Dashboard struct {
	TotalPosts          int64           `json:"totalPosts"`
	PostsByStatus       []StatusCount   `json:"postsByStatus"`
	PostsByCategory     []CategoryCount `json:"postsByCategory"`
	TotalUsers          int64           `json:"totalUsers"`
	ActiveUsers         int64           `json:"activeUsers"`
	TotalViews          uint64          `json:"totalViews"`
	TotalLikes          int64           `json:"totalLikes"`
	TotalComments       int64           `json:"totalComments"`
	TotalUniqueVisitors int64           `json:"totalUniqueVisitors"`
	TopPosts            []TopPostStat   `json:"topPosts"`
}

// Dashboard aggregates site counters in the database with COUNT/SUM queries.
func (s *AnalyticsService) Dashboard(ctx context.Context, admin Actor, topLimit int) (*Dashboard, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if topLimit <= 0 {
		topLimit = defaultTopPosts
	}

	gdb := s.db.WithContext(ctx)
	dashboard := &Dashboard{}

	var statusRows []StatusCount
	if err := gdb.Model(&db.Post{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	byStatus := make(map[db.PostStatus]int64, len(statusRows))
	for _, row := range statusRows {
		byStatus[row.Status] = row.Count
		dashboard.TotalPosts += row.Count
	}
	for _, status := range db.PostStatuses {
		dashboard.PostsByStatus = append(dashboard.PostsByStatus, StatusCount{Status: status, Count: byStatus[status]})
	}

	var categoryRows []CategoryCount
	if err := gdb.Model(&db.Post{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&categoryRows).Error; err != nil {
		return nil, fmt.Errorf("count posts by category: %w", err)
	}
	dashboard.PostsByCategory = categoryRows

	if err := gdb.Model(&db.User{}).Count(&dashboard.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := gdb.Model(&db.User{}).Where("active = ?", true).Count(&dashboard.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	var totals struct {
		Views    uint64
		Likes    int64
		Comments int64
	}
	if err := gdb.Model(&db.Post{}).
		Select("COALESCE(SUM(views), 0) AS views, COALESCE(SUM(like_count), 0) AS likes, COALESCE(SUM(comment_count), 0) AS comments").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("sum engagement: %w", err)
	}
	dashboard.TotalViews = totals.Views
	dashboard.TotalLikes = totals.Likes
	dashboard.TotalComments = totals.Comments

	if err := gdb.Model(&db.PostVisit{}).Distinct("visitor_id").Count(&dashboard.TotalUniqueVisitors).Error; err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}

	if err := gdb.Table("posts").
		Select("posts.id AS post_id, posts.title, posts.slug, posts.views, posts.like_count AS likes, posts.comment_count AS comments, COALESCE(post_statistics.unique_visitors, 0) AS unique_visitors").
		Joins("LEFT JOIN post_statistics ON post_statistics.post_id = posts.id").
		Where("posts.deleted_at IS NULL AND posts.status = ?", db.StatusPublished).
		Order("posts.views DESC").
		Order("posts.id DESC").
		Limit(topLimit).
		Scan(&dashboard.TopPosts).Error; err != nil {
		return nil, fmt.Errorf("load top posts: %w", err)
	}

	return dashboard, nil
}
