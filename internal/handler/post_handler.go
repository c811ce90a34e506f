package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
)

// ListMyPosts lists the caller's own posts in every status.
func (a *API) ListMyPosts(c *gin.Context) {
	actor, _ := currentActor(c)
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	page, err := a.posts.ListMine(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreatePost 创建新文章
func (a *API) CreatePost(c *gin.Context) {
	actor, _ := currentActor(c)

	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.posts.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	a.respondPost(c, http.StatusCreated, post, actor)
}

// UpdatePost 更新文章；已发布或已隐藏的文章会重新进入审核
func (a *API) UpdatePost(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req postRequest
	if !bindJSON(c, &req, "invalid post payload") {
		return
	}

	post, err := a.posts.Update(c.Request.Context(), actor, id, req.input())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	a.respondPost(c, http.StatusOK, post, actor)
}

// SubmitPost sends a draft or rejected post to moderation.
func (a *API) SubmitPost(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Submit(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	a.respondPost(c, http.StatusOK, post, actor)
}

// DeletePost 删除文章
func (a *API) DeletePost(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.posts.Delete(c.Request.Context(), actor, id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (a *API) respondPost(c *gin.Context, status int, post *db.Post, actor service.Actor) {
	detail, err := a.buildDetail(c, post, &actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(status, gin.H{"post": detail})
}
