package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quillpost/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestSeedSpreadsPostsOverStatuses(t *testing.T) {
	gdb, err := db.Open(fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano()), logger.Silent)
	require.NoError(t, err)

	result, err := seed(context.Background(), gdb)
	require.NoError(t, err)
	assert.Equal(t, len(seedPosts), result.posts)
	assert.Equal(t, 3, result.published)

	counts := map[db.PostStatus]int64{}
	for _, status := range db.PostStatuses {
		var n int64
		require.NoError(t, gdb.Model(&db.Post{}).Where("status = ?", status).Count(&n).Error)
		counts[status] = n
	}
	assert.Equal(t, int64(3), counts[db.StatusPublished])
	assert.Equal(t, int64(1), counts[db.StatusHidden])
	assert.Equal(t, int64(1), counts[db.StatusRejected])
	assert.Equal(t, int64(1), counts[db.StatusPending])
	assert.Equal(t, int64(1), counts[db.StatusDraft])

	var liked db.Post
	require.NoError(t, gdb.Where("title = ?", seedPosts[0].title).First(&liked).Error)
	assert.Equal(t, uint64(42), liked.Views)
	assert.Equal(t, int64(2), liked.LikeCount)
	assert.Equal(t, int64(1), liked.CommentCount)

	again, err := seed(context.Background(), gdb)
	require.NoError(t, err)
	assert.Zero(t, again.posts)
}
