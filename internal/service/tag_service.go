package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillpost/internal/db"
	"gorm.io/gorm"
)

// TagService wraps tag related operations.
type TagService struct {
	db *gorm.DB
}

// TagUsage 描述标签的使用次数
type TagUsage struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NewTagService creates a TagService instance.
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// Resolve finds or creates a tag for every name, inside tx.
func (s *TagService) Resolve(tx *gorm.DB, names []string) ([]db.Tag, error) {
	normalized := normalizeTagNames(names)
	tags := make([]db.Tag, 0, len(normalized))
	for _, name := range normalized {
		var tag db.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, db.Tag{Name: name}).Error; err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// PublishedUsage 返回已发布文章中标签的使用统计
func (s *TagService) PublishedUsage(ctx context.Context, limit int) ([]TagUsage, error) {
	if limit <= 0 {
		limit = 20
	}

	var usages []TagUsage
	err := s.db.WithContext(ctx).Table("tags").
		Select("tags.name AS name, COUNT(DISTINCT posts.id) AS count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.status = ? AND posts.deleted_at IS NULL", db.StatusPublished).
		Group("tags.id, tags.name").
		Order("count DESC").
		Order("tags.name ASC").
		Limit(limit).
		Scan(&usages).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []TagUsage{}, nil
		}
		return nil, err
	}
	return usages, nil
}
