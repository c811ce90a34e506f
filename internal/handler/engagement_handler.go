package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ToggleLike likes a published post, or removes the like if the caller already liked it.
func (a *API) ToggleLike(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.engagement.ToggleLike(c.Request.Context(), actor, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListComments returns the comments of a visible post.
func (a *API) ListComments(c *gin.Context) {
	post, err := a.posts.GetForViewer(c.Request.Context(), viewer(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	comments, err := a.engagement.ListComments(c.Request.Context(), post.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// AddComment comments on a published post.
func (a *API) AddComment(c *gin.Context) {
	actor, _ := currentActor(c)
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req commentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}

	comment, err := a.engagement.AddComment(c.Request.Context(), actor, id, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// AddReply appends a reply to a comment.
func (a *API) AddReply(c *gin.Context) {
	actor, _ := currentActor(c)
	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	commentID, err := parseUintParam(c, "commentID")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req replyRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}

	comment, err := a.engagement.AddReply(c.Request.Context(), actor, postID, commentID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
