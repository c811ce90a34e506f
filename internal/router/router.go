package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/handler"
)

const sessionName = "quillpost_session"

// Options configures SetupRouter.
type Options struct {
	SessionSecret string
	UploadDir     string
	UploadURLPath string
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 静态文件服务
	if uploadDir := strings.TrimSpace(opts.UploadDir); uploadDir != "" {
		uploadURL := "/" + strings.Trim(strings.TrimSpace(opts.UploadURLPath), "/")
		if uploadURL == "/" {
			uploadURL = "/static/uploads"
		}
		r.Static(uploadURL, uploadDir)
		if uploadURL != "/uploads" {
			r.Static("/uploads", uploadDir)
		}
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", api.Register)
		authGroup.POST("/login", api.Login)
		authGroup.POST("/logout", api.Logout)
		authGroup.GET("/me", api.AuthRequired(), api.Me)
	}

	public := apiGroup.Group("")
	public.Use(api.OptionalAuth())
	{
		public.GET("/posts", api.ListPosts)
		public.GET("/posts/trending", api.TrendingPosts)
		public.GET("/posts/:id", api.GetPost)
		public.GET("/posts/:id/comments", api.ListComments)
		public.GET("/categories", api.ListCategories)
		public.GET("/categories/:category/posts", api.ListCategoryPosts)
		public.GET("/tags", api.ListTags)
	}

	// 需要登录的路由
	member := apiGroup.Group("")
	member.Use(api.AuthRequired())
	{
		member.GET("/me/posts", api.ListMyPosts)
		member.POST("/posts", api.CreatePost)
		member.PUT("/posts/:id", api.UpdatePost)
		member.POST("/posts/:id/submit", api.SubmitPost)
		member.DELETE("/posts/:id", api.DeletePost)
		member.POST("/posts/:id/like", api.ToggleLike)
		member.POST("/posts/:id/comments", api.AddComment)
		member.POST("/posts/:id/comments/:commentID/replies", api.AddReply)
		member.POST("/uploads", api.UploadImage)
	}

	// 后台管理路由
	admin := apiGroup.Group("/admin")
	admin.Use(api.AuthRequired(), handler.AdminRequired())
	{
		admin.GET("/dashboard", api.ShowDashboard)
		admin.GET("/posts", api.ListModerationPosts)
		admin.POST("/posts/:id/approve", api.ApprovePost)
		admin.POST("/posts/:id/reject", api.RejectPost)
		admin.POST("/posts/:id/toggle-visibility", api.TogglePostVisibility)
		admin.DELETE("/posts/:id", api.DeletePost)
		admin.GET("/users", api.ListUsers)
		admin.PUT("/users/:id/status", api.SetUserStatus)
		admin.PUT("/users/:id/role", api.SetUserRole)
	}

	return r
}
