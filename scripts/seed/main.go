package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillpost/internal/config"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/logger"
	"github.com/quillpost/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	seedAdminEmail    = "admin@quillpost.local"
	seedAdminPassword = "admin12345"
	seedUserPassword  = "writer12345"
)

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	result, err := seed(context.Background(), db.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed data")
	}

	fmt.Println("seed data ready")
	fmt.Printf("admin: %s (password: %s)\n", seedAdminEmail, seedAdminPassword)
	fmt.Printf("writers: %s (password: %s)\n", strings.Join(result.writers, ", "), seedUserPassword)
	fmt.Printf("posts: %d created, %d published\n", result.posts, result.published)
}

type seedResult struct {
	writers   []string
	posts     int
	published int
}

type seedPost struct {
	title    string
	category db.Category
	tags     []string
	outcome  db.PostStatus
	views    int
}

var seedPosts = []seedPost{
	{title: "Building fast web services in Go", category: db.CategoryTechnology, tags: []string{"go", "web"}, outcome: db.StatusPublished, views: 42},
	{title: "A weekend in the Dolomites", category: db.CategoryTravel, tags: []string{"hiking", "italy"}, outcome: db.StatusPublished, views: 17},
	{title: "Sourdough starter from scratch", category: db.CategoryFood, tags: []string{"baking"}, outcome: db.StatusPublished, views: 8},
	{title: "Why I stopped using spreadsheets", category: db.CategoryBusiness, tags: []string{"tools"}, outcome: db.StatusRejected},
	{title: "Notes on sleep and focus", category: db.CategoryHealth, tags: []string{"habits"}, outcome: db.StatusPending},
	{title: "Half finished thoughts on teaching", category: db.CategoryEducation, tags: []string{"teaching"}, outcome: db.StatusDraft},
	{title: "An old post about SQLite tuning", category: db.CategoryTechnology, tags: []string{"sqlite", "database"}, outcome: db.StatusHidden},
}

// seed creates an admin, two writers and a set of posts spread over every status.
// Running it against a database that already has posts does nothing.
func seed(ctx context.Context, gdb *gorm.DB) (*seedResult, error) {
	var existing int64
	if err := gdb.WithContext(ctx).Model(&db.Post{}).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		log.Info().Int64("posts", existing).Msg("posts already exist, skipping seed")
		return &seedResult{}, nil
	}

	if err := db.EnsureAdmin(gdb, seedAdminEmail, seedAdminPassword); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	var adminUser db.User
	if err := gdb.WithContext(ctx).Where("email = ?", seedAdminEmail).First(&adminUser).Error; err != nil {
		return nil, err
	}
	admin := service.ActorFromUser(adminUser)

	users := service.NewUserService(gdb)
	posts := service.NewPostService(gdb, service.LogNotifier{})
	engagement := service.NewEngagementService(gdb)

	result := &seedResult{}
	var writers []service.Actor
	for _, name := range []string{"ada", "grace"} {
		email := name + "@quillpost.local"
		user, err := users.Register(ctx, service.RegisterInput{
			Email:     email,
			Password:  seedUserPassword,
			FirstName: strings.ToUpper(name[:1]) + name[1:],
			LastName:  "Writer",
		})
		if err != nil && !errors.Is(err, service.ErrEmailTaken) {
			return nil, fmt.Errorf("register %s: %w", email, err)
		}
		if user == nil {
			var stored db.User
			if err := gdb.WithContext(ctx).Where("email = ?", email).First(&stored).Error; err != nil {
				return nil, err
			}
			user = &stored
		}
		writers = append(writers, service.ActorFromUser(*user))
		result.writers = append(result.writers, email)
	}

	for i, item := range seedPosts {
		author := writers[i%len(writers)]
		post, err := posts.Create(ctx, author, service.PostInput{
			Title:    item.title,
			Content:  seedContent(item.title),
			Excerpt:  "A short introduction to " + strings.ToLower(item.title) + ".",
			Category: item.category,
			Tags:     item.tags,
			Draft:    item.outcome == db.StatusDraft,
		})
		if err != nil {
			return nil, fmt.Errorf("create %q: %w", item.title, err)
		}
		result.posts++

		switch item.outcome {
		case db.StatusPublished, db.StatusHidden:
			if _, err := posts.Approve(ctx, admin, post.ID); err != nil {
				return nil, err
			}
			result.published++
			if err := seedEngagement(ctx, engagement, writers, post.ID, item.views); err != nil {
				return nil, err
			}
			if item.outcome == db.StatusHidden {
				if _, err := posts.ToggleVisibility(ctx, admin, post.ID); err != nil {
					return nil, err
				}
				result.published--
			}
		case db.StatusRejected:
			if _, err := posts.Reject(ctx, admin, post.ID, "Please add sources for the numbers you quote."); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func seedEngagement(ctx context.Context, engagement *service.EngagementService, readers []service.Actor, postID uint, views int) error {
	for i := 0; i < views; i++ {
		if _, err := engagement.RecordView(ctx, postID); err != nil {
			return err
		}
	}
	for _, reader := range readers {
		if _, err := engagement.ToggleLike(ctx, reader, postID); err != nil {
			return err
		}
	}
	_, err := engagement.AddComment(ctx, readers[0], postID, "Thanks for writing this up, it was a good read.")
	return err
}

func seedContent(title string) string {
	paragraph := "This is sample content generated for local development. It exists so that listings, " +
		"search and the moderation queue have something to show. "
	return "# " + title + "\n\n" + strings.Repeat(paragraph, 4)
}
