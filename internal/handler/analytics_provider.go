package handler

import (
	"context"
	"time"

	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
)

type analyticsProvider interface {
	Dashboard(ctx context.Context, admin service.Actor, topLimit int) (*service.Dashboard, error)
	PostStatsMap(ctx context.Context, postIDs []uint) (map[uint]*db.PostStatistic, error)
	RecordPostView(ctx context.Context, postID uint, visitorID string, now time.Time) (*db.PostStatistic, error)
}
