package db

import "time"

// PostStatistic aggregates analytics page views and unique visitors for a post.
type PostStatistic struct {
	ID             uint   `gorm:"primaryKey"`
	PostID         uint   `gorm:"uniqueIndex"`
	PageViews      uint64 `gorm:"default:0"`
	UniqueVisitors uint64 `gorm:"default:0"`
	LastViewedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PostStatistic) TableName() string {
	return "post_statistics"
}

// PostVisit remembers which visitor has seen which post, for unique-visitor dedup.
type PostVisit struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"uniqueIndex:idx_post_visitor"`
	VisitorID    string `gorm:"size:64;uniqueIndex:idx_post_visitor"`
	LastViewedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定自定义表名。
func (PostVisit) TableName() string {
	return "post_visits"
}
