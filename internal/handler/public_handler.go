package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	visitorCookieName   = "qp_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60
)

// postDetail is the full representation of a single post.
type postDetail struct {
	service.PostSummary
	Content         string          `json:"content"`
	HTML            template.HTML   `json:"html"`
	EngagementScore decimal.Decimal `json:"engagementScore"`
	LikedByViewer   bool            `json:"likedByViewer"`
	UniqueVisitors  uint64          `json:"uniqueVisitors"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
}

// ListPosts returns published posts with category, search and sort filters.
func (a *API) ListPosts(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	q.Status = db.StatusPublished

	page, err := a.posts.List(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListCategoryPosts lists the published posts of one category.
func (a *API) ListCategoryPosts(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	page, err := a.posts.ListByCategory(c.Request.Context(), db.Category(c.Param("category")), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// TrendingPosts returns the top published posts by unique readers and engagement.
func (a *API) TrendingPosts(c *gin.Context) {
	limit := parsePositiveInt(c.DefaultQuery("limit", "5"), 5)

	posts, err := a.posts.Trending(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ListCategories returns every category with its published post count.
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.posts.Categories(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetPost renders one post by id or slug. Reading a published post counts a view and
// records the visitor for trending.
func (a *API) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	reader := viewer(c)

	post, err := a.posts.GetForViewer(ctx, reader, strings.TrimSpace(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	var uniqueVisitors uint64
	if post.Status == db.StatusPublished {
		views, err := a.engagement.RecordView(ctx, post.ID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		post.Views = views

		visitorID := a.ensureVisitorID(c)
		if stats, recordErr := a.analytics.RecordPostView(ctx, post.ID, visitorID, time.Now().UTC()); recordErr == nil {
			uniqueVisitors = stats.UniqueVisitors
		} else {
			// 不中断请求，但记录错误
			log.Warn().Err(recordErr).Uint("post_id", post.ID).Msg("failed to record visitor")
		}
	}

	detail, err := a.buildDetail(c, post, reader)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if uniqueVisitors > 0 {
		detail.UniqueVisitors = uniqueVisitors
	}

	c.JSON(http.StatusOK, gin.H{"post": detail})
}

func (a *API) buildDetail(c *gin.Context, post *db.Post, reader *service.Actor) (*postDetail, error) {
	htmlContent, err := renderMarkdown(post.Content)
	if err != nil {
		htmlContent = template.HTML("<p>This post cannot be displayed right now.</p>")
	}

	detail := &postDetail{
		PostSummary:     service.Summarize(*post),
		Content:         post.Content,
		HTML:            htmlContent,
		EngagementScore: service.EngagementScore(*post),
		ApprovedAt:      post.ApprovedAt,
	}

	if reader != nil {
		liked, err := a.engagement.HasLiked(c.Request.Context(), reader.UserID, post.ID)
		if err != nil {
			return nil, err
		}
		detail.LikedByViewer = liked
		if service.CanModify(*reader, post.UserID) {
			detail.RejectionReason = post.RejectionReason
		}
	}

	stats, err := a.analytics.PostStatsMap(c.Request.Context(), []uint{post.ID})
	if err != nil {
		return nil, err
	}
	if stat, ok := stats[post.ID]; ok {
		detail.UniqueVisitors = stat.UniqueVisitors
	}

	return detail, nil
}

func bindListQuery(c *gin.Context) (service.PostQuery, bool) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query parameters")
		return service.PostQuery{}, false
	}
	if !validateRequest(c, &query) {
		return service.PostQuery{}, false
	}
	return query.postQuery(), true
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	secure := c.Request.TLS != nil

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   visitorCookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
