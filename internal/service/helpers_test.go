package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quillpost/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	require.NoError(t, err, "open test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, email string, role db.Role) db.User {
	t.Helper()
	user := db.User{
		Email:     email,
		Password:  "not-a-real-hash",
		FirstName: strings.Split(email, "@")[0],
		Role:      role,
		Active:    true,
	}
	require.NoError(t, gdb.Create(&user).Error)
	return user
}

func deactivate(t *testing.T, gdb *gorm.DB, user db.User) Actor {
	t.Helper()
	require.NoError(t, gdb.Model(&user).Update("active", false).Error)
	user.Active = false
	return ActorFromUser(user)
}

func postInput(title string, tags ...string) PostInput {
	return PostInput{
		Title:    title,
		Content:  strings.Repeat("Plenty of words about "+title+". ", 20),
		Excerpt:  "Excerpt for " + title,
		Category: db.CategoryTechnology,
		Tags:     tags,
	}
}

// steppingClock returns a time source that advances one minute per call.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}

type recordingNotifier struct {
	approved []PostNotice
	rejected []PostNotice
	err      error
}

func (n *recordingNotifier) PostApproved(_ context.Context, notice PostNotice) error {
	n.approved = append(n.approved, notice)
	return n.err
}

func (n *recordingNotifier) PostRejected(_ context.Context, notice PostNotice) error {
	n.rejected = append(n.rejected, notice)
	return n.err
}

var errMailDown = errors.New("smtp unavailable")

// fixture wires the services over one database with an author, a reader and an admin.
type fixture struct {
	db         *gorm.DB
	posts      *PostService
	engagement *EngagementService
	analytics  *AnalyticsService
	notifier   *recordingNotifier
	author     Actor
	reader     Actor
	admin      Actor
	authorUser db.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := setupTestDB(t)
	notifier := &recordingNotifier{}

	author := createUser(t, gdb, "author@example.com", db.RoleUser)
	reader := createUser(t, gdb, "reader@example.com", db.RoleUser)
	admin := createUser(t, gdb, "admin@example.com", db.RoleAdmin)

	return &fixture{
		db:         gdb,
		posts:      NewPostService(gdb, notifier).WithClock(steppingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))),
		engagement: NewEngagementService(gdb),
		analytics:  NewAnalyticsService(gdb),
		notifier:   notifier,
		author:     ActorFromUser(author),
		reader:     ActorFromUser(reader),
		admin:      ActorFromUser(admin),
		authorUser: author,
	}
}

func (f *fixture) create(t *testing.T, input PostInput) *db.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), f.author, input)
	require.NoError(t, err)
	return post
}

func (f *fixture) publish(t *testing.T, input PostInput) *db.Post {
	t.Helper()
	post := f.create(t, input)
	published, err := f.posts.Approve(context.Background(), f.admin, post.ID)
	require.NoError(t, err)
	return published
}

func (f *fixture) reload(t *testing.T, id uint) *db.Post {
	t.Helper()
	post, err := f.posts.Get(context.Background(), id)
	require.NoError(t, err)
	return post
}

func (f *fixture) publishAs(t *testing.T, author Actor, input PostInput) *db.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), author, input)
	require.NoError(t, err)
	published, err := f.posts.Approve(context.Background(), f.admin, post.ID)
	require.NoError(t, err)
	return published
}
