package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTags 返回已发布文章中使用最多的标签
func (a *API) ListTags(c *gin.Context) {
	limit := parsePositiveInt(c.DefaultQuery("limit", "20"), 20)
	if limit > 100 {
		limit = 100
	}

	usages, err := a.tags.PublishedUsage(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": usages})
}
