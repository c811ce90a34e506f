package handler

import (
	"github.com/quillpost/internal/auth"
	"github.com/quillpost/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts      *service.PostService
	engagement *service.EngagementService
	tags       *service.TagService
	users      *service.UserService
	analytics  analyticsProvider
	tokens     *auth.Manager
	uploadDir  string
	uploadURL  string
}

// Options configures NewAPI.
type Options struct {
	Tokens    *auth.Manager
	Notifier  service.Notifier
	UploadDir string
	UploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	return &API{
		posts:      service.NewPostService(gdb, opts.Notifier),
		engagement: service.NewEngagementService(gdb),
		tags:       service.NewTagService(gdb),
		users:      service.NewUserService(gdb),
		analytics:  service.NewAnalyticsService(gdb),
		tokens:     opts.Tokens,
		uploadDir:  opts.UploadDir,
		uploadURL:  opts.UploadURL,
	}
}
