package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quillpost/internal/db"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	minRejectionReason = 10
	maxRejectionReason = 500
)

// PostService owns the moderation workflow of posts and the listing queries over them.
type PostService struct {
	db       *gorm.DB
	tags     *TagService
	notifier Notifier
	now      func() time.Time
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title         string
	Content       string
	Excerpt       string
	Category      db.Category
	Tags          []string
	FeaturedImage string
	// Draft keeps a newly created post out of the moderation queue. Ignored on update.
	Draft bool
}

// NewPostService creates a PostService. A nil notifier falls back to LogNotifier.
func NewPostService(gdb *gorm.DB, notifier Notifier) *PostService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &PostService{
		db:       gdb,
		tags:     NewTagService(gdb),
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	if now != nil {
		s.now = now
	}
	return s
}

// Get fetches a post by id with tags and author preloaded.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).Preload("Tags").Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return &post, nil
}

// GetBySlug fetches a post by its slug.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*db.Post, error) {
	var post db.Post
	if err := s.db.WithContext(ctx).Preload("Tags").Preload("User").
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post %q: %w", slug, err)
	}
	return &post, nil
}

// GetForViewer resolves ref as an id or a slug; an all-digit ref that matches no id is
// tried as a slug. Posts that are not published are only
// visible to their author and to admins; everyone else gets ErrPostNotFound.
func (s *PostService) GetForViewer(ctx context.Context, viewer *Actor, ref string) (*db.Post, error) {
	var (
		post *db.Post
		err  error
	)
	if id, parseErr := strconv.ParseUint(ref, 10, 32); parseErr == nil {
		post, err = s.Get(ctx, uint(id))
		if errors.Is(err, ErrPostNotFound) {
			post, err = s.GetBySlug(ctx, ref)
		}
	} else {
		post, err = s.GetBySlug(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	if post.Status != db.StatusPublished && (viewer == nil || !CanModify(*viewer, post.UserID)) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Create persists a new post owned by actor. It starts pending unless input.Draft is set.
func (s *PostService) Create(ctx context.Context, actor Actor, input PostInput) (*db.Post, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}

	status := db.StatusPending
	if input.Draft {
		status = db.StatusDraft
	}

	post := db.Post{
		Title:         strings.TrimSpace(input.Title),
		Content:       input.Content,
		Excerpt:       strings.TrimSpace(input.Excerpt),
		Category:      input.Category,
		FeaturedImage: featuredImageFor(input),
		Status:        status,
		UserID:        actor.UserID,
		ReadingTime:   calculateReadingTime(input.Content),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, GenerateSlug(post.Title))
		if err != nil {
			return err
		}
		post.Slug = slug

		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return s.replaceTags(tx, &post, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("post_id", post.ID).Str("slug", post.Slug).Str("status", string(post.Status)).Msg("post created")
	return s.Get(ctx, post.ID)
}

// Update edits the content of a post. The slug never changes. Editing a published or
// hidden post sends it back to the moderation queue.
func (s *PostService) Update(ctx context.Context, actor Actor, id uint, input PostInput) (*db.Post, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(actor, existing.UserID); err != nil {
		return nil, err
	}

	next, err := NextStatus(existing.Status, EventEdit)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":          strings.TrimSpace(input.Title),
		"content":        input.Content,
		"excerpt":        strings.TrimSpace(input.Excerpt),
		"category":       input.Category,
		"featured_image": featuredImageFor(input),
		"reading_time":   calculateReadingTime(input.Content),
		"status":         next,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Post{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update post %d: %w", existing.ID, err)
		}
		return s.replaceTags(tx, existing, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	if next != existing.Status {
		log.Info().Uint("post_id", existing.ID).Str("from", string(existing.Status)).Str("to", string(next)).Msg("edited post re-queued for moderation")
	}
	return s.Get(ctx, existing.ID)
}

// Submit puts a draft or rejected post into the moderation queue. Submitting a pending
// post is a no-op.
func (s *PostService) Submit(ctx context.Context, actor Actor, id uint) (*db.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(actor, post.UserID); err != nil {
		return nil, err
	}

	next, err := NextStatus(post.Status, EventSubmit)
	if err != nil {
		return nil, err
	}
	if next == post.Status {
		return post, nil
	}

	if err := s.applyTransition(ctx, post, EventSubmit, map[string]interface{}{"rejection_reason": ""}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Approve publishes a pending post and notifies its author.
func (s *PostService) Approve(ctx context.Context, admin Actor, id uint) (*db.Post, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updates := map[string]interface{}{
		"approved_by": admin.UserID,
		"approved_at": now,
	}
	if post.PublishedAt == nil {
		updates["published_at"] = now
	}

	if err := s.applyTransition(ctx, post, EventApprove, updates); err != nil {
		return nil, err
	}

	s.notify(ctx, EventApprove, post, "")
	return s.Get(ctx, id)
}

// Reject moves a pending post to rejected with the given reason and notifies its author.
func (s *PostService) Reject(ctx context.Context, admin Actor, id uint, reason string) (*db.Post, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(reason)); n < minRejectionReason || n > maxRejectionReason {
		return nil, ErrRejectionReason
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyTransition(ctx, post, EventReject, map[string]interface{}{"rejection_reason": reason}); err != nil {
		return nil, err
	}

	s.notify(ctx, EventReject, post, reason)
	return s.Get(ctx, id)
}

// ToggleVisibility hides a published post or republishes a hidden one.
func (s *PostService) ToggleVisibility(ctx context.Context, admin Actor, id uint) (*db.Post, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	event := EventHide
	var updates map[string]interface{}
	if post.Status == db.StatusHidden {
		event = EventUnhide
		updates = map[string]interface{}{"published_at": s.now()}
	}

	if err := s.applyTransition(ctx, post, event, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete hard-deletes a post together with its comments, likes, tag links and analytics.
func (s *PostService) Delete(ctx context.Context, actor Actor, id uint) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(actor, post.UserID); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.PostLike{}).Error; err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.PostStatistic{}).Error; err != nil {
			return fmt.Errorf("delete statistics: %w", err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&db.PostVisit{}).Error; err != nil {
			return fmt.Errorf("delete visits: %w", err)
		}
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := tx.Unscoped().Delete(&db.Post{}, post.ID).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Uint("post_id", post.ID).Uint("actor_id", actor.UserID).Msg("post deleted")
	return nil
}

// applyTransition moves post along event with a conditional update on the status it
// was read with, so a concurrent transition cannot be overwritten.
func (s *PostService) applyTransition(ctx context.Context, post *db.Post, event PostEvent, updates map[string]interface{}) error {
	next, err := NextStatus(post.Status, event)
	if err != nil {
		return err
	}

	values := map[string]interface{}{"status": next}
	for key, value := range updates {
		values[key] = value
	}

	result := s.db.WithContext(ctx).Model(&db.Post{}).
		Where("id = ? AND status = ?", post.ID, post.Status).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("%s post %d: %w", event, post.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		var current db.Post
		if err := s.db.WithContext(ctx).Select("id", "status").First(&current, post.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		return &TransitionError{Event: event, Status: string(current.Status)}
	}

	log.Info().Uint("post_id", post.ID).Str("event", string(event)).Str("from", string(post.Status)).Str("to", string(next)).Msg("post status changed")
	post.Status = next
	return nil
}

// notify never fails the caller: the moderation decision stands regardless of delivery.
func (s *PostService) notify(ctx context.Context, event PostEvent, post *db.Post, reason string) {
	notice := PostNotice{
		Email:     post.User.Email,
		FirstName: post.User.FirstName,
		Title:     post.Title,
		Reason:    reason,
	}

	var err error
	switch event {
	case EventApprove:
		err = s.notifier.PostApproved(ctx, notice)
	case EventReject:
		err = s.notifier.PostRejected(ctx, notice)
	default:
		return
	}

	if err != nil {
		log.Warn().Err(err).Uint("post_id", post.ID).Str("event", string(event)).Msg("moderation notification failed")
	}
}

func (s *PostService) replaceTags(tx *gorm.DB, post *db.Post, names []string) error {
	tags, err := s.tags.Resolve(tx, names)
	if err != nil {
		return err
	}
	if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	return nil
}

// uniqueSlug appends -2, -3, ... to base until no post uses it.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "post"
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&db.Post{}).Unscoped().Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
