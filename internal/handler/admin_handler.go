package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
)

// ShowDashboard 返回后台统计面板数据
func (a *API) ShowDashboard(c *gin.Context) {
	actor, _ := currentActor(c)
	limit := parsePositiveInt(c.DefaultQuery("top", "5"), 5)

	dashboard, err := a.analytics.Dashboard(c.Request.Context(), actor, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListModerationPosts lists posts in any status; ?status=pending gives the review queue.
func (a *API) ListModerationPosts(c *gin.Context) {
	actor, _ := currentActor(c)
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	page, err := a.posts.ListForModeration(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ApprovePost publishes a pending post.
func (a *API) ApprovePost(c *gin.Context) {
	a.moderate(c, func(actor service.Actor, id uint) (*db.Post, error) {
		return a.posts.Approve(c.Request.Context(), actor, id)
	})
}

// RejectPost rejects a pending post with a reason.
func (a *API) RejectPost(c *gin.Context) {
	var req rejectRequest
	if !bindJSON(c, &req, "invalid rejection payload") {
		return
	}
	a.moderate(c, func(actor service.Actor, id uint) (*db.Post, error) {
		return a.posts.Reject(c.Request.Context(), actor, id, req.Reason)
	})
}

// TogglePostVisibility hides a published post or republishes a hidden one.
func (a *API) TogglePostVisibility(c *gin.Context) {
	a.moderate(c, func(actor service.Actor, id uint) (*db.Post, error) {
		return a.posts.ToggleVisibility(c.Request.Context(), actor, id)
	})
}

func (a *API) moderate(c *gin.Context, apply func(actor service.Actor, id uint) (*db.Post, error)) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := apply(actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	a.respondPost(c, http.StatusOK, post, actor)
}

// ListUsers 返回用户列表，支持搜索和分页
func (a *API) ListUsers(c *gin.Context) {
	actor, _ := currentActor(c)

	q := service.UserQuery{
		Page:   parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		Limit:  parsePositiveInt(c.DefaultQuery("limit", "10"), 10),
		Search: c.Query("search"),
		Role:   db.Role(c.Query("role")),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid active filter")
			return
		}
		q.Active = &active
	}

	page, err := a.users.List(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SetUserStatus activates or deactivates an account.
func (a *API) SetUserStatus(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req userStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}

	user, err := a.users.SetActive(c.Request.Context(), actor, id, *req.Active)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetUserRole changes the role of an account.
func (a *API) SetUserRole(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req userRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}

	user, err := a.users.SetRole(c.Request.Context(), actor, id, db.Role(req.Role))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
