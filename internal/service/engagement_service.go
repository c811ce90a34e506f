package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quillpost/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engagement score weights.
var (
	likeWeight    = decimal.NewFromInt(2)
	commentWeight = decimal.NewFromInt(3)
	viewWeight    = decimal.New(1, -1)
	shareWeight   = decimal.NewFromInt(5)
)

// EngagementService is the only writer of views, likes and comments.
type EngagementService struct {
	db  *gorm.DB
	now func() time.Time
}

// LikeResult reports the like state after a toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likesCount"`
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(gdb *gorm.DB) *EngagementService {
	return &EngagementService{db: gdb, now: time.Now}
}

// RecordView adds one view. Repeat views by the same reader all count.
func (s *EngagementService) RecordView(ctx context.Context, postID uint) (uint64, error) {
	result := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ?", postID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, fmt.Errorf("record view: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrPostNotFound
	}

	var views uint64
	if err := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ?", postID).
		Pluck("views", &views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// ToggleLike adds actor to the like set of a published post, or removes them if they
// are already in it.
func (s *EngagementService) ToggleLike(ctx context.Context, actor Actor, postID uint) (*LikeResult, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	result := &LikeResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := publishedPost(tx, postID, EventLike); err != nil {
			return err
		}

		removed := tx.Where("post_id = ? AND user_id = ?", postID, actor.UserID).Delete(&db.PostLike{})
		if removed.Error != nil {
			return fmt.Errorf("unlike: %w", removed.Error)
		}

		delta := -1
		if removed.RowsAffected == 0 {
			inserted := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).Create(&db.PostLike{PostID: postID, UserID: actor.UserID})
			if inserted.Error != nil {
				return fmt.Errorf("like: %w", inserted.Error)
			}
			result.Liked = true
			delta = int(inserted.RowsAffected)
		}

		if delta != 0 {
			if err := tx.Model(&db.Post{}).
				Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error; err != nil {
				return fmt.Errorf("update like count: %w", err)
			}
		}

		return tx.Model(&db.Post{}).Where("id = ?", postID).Pluck("like_count", &result.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HasLiked reports whether userID is in the like set of postID.
func (s *EngagementService) HasLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&db.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddComment appends a comment to a published post. Content length is checked by the caller.
func (s *EngagementService) AddComment(ctx context.Context, actor Actor, postID uint, content string) (*db.Comment, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	comment := db.Comment{
		PostID:  postID,
		UserID:  actor.UserID,
		Content: strings.TrimSpace(content),
		Replies: []db.CommentReply{},
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := publishedPost(tx, postID, EventComment); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return tx.Model(&db.Post{}).
			Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// AddReply appends a reply to a comment of a published post.
func (s *EngagementService) AddReply(ctx context.Context, actor Actor, postID, commentID uint, content string) (*db.Comment, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	var comment db.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := publishedPost(tx, postID, EventComment); err != nil {
			return err
		}
		if err := tx.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}

		comment.Replies = append(comment.Replies, db.CommentReply{
			UserID:    actor.UserID,
			Content:   strings.TrimSpace(content),
			CreatedAt: s.now(),
		})
		return tx.Model(&comment).UpdateColumn("replies", comment.Replies).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.WithContext(ctx).Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// EngagementScore is likes*2 + comments*3 + views*0.1 + shares*5.
func EngagementScore(post db.Post) decimal.Decimal {
	return decimal.NewFromInt(post.LikeCount).Mul(likeWeight).
		Add(decimal.NewFromInt(post.CommentCount).Mul(commentWeight)).
		Add(decimal.NewFromUint64(post.Views).Mul(viewWeight)).
		Add(decimal.NewFromUint64(post.Shares).Mul(shareWeight))
}

func publishedPost(tx *gorm.DB, postID uint, event PostEvent) (*db.Post, error) {
	var post db.Post
	if err := tx.Select("id", "status", "user_id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.Status != db.StatusPublished {
		return nil, &TransitionError{Event: event, Status: string(post.Status)}
	}
	return &post, nil
}
