package db

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm/logger"
)

func TestPostStatusValid(t *testing.T) {
	for _, status := range PostStatuses {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	for _, status := range []PostStatus{"", "archived", "Published"} {
		if status.Valid() {
			t.Fatalf("expected %q to be invalid", status)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, category := range Categories {
		if !category.Valid() {
			t.Fatalf("expected %q to be valid", category)
		}
	}
	for _, category := range []Category{"", "Gardening", "technology"} {
		if category.Valid() {
			t.Fatalf("expected %q to be invalid", category)
		}
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAdmin.Valid() {
		t.Fatalf("expected built-in roles to be valid")
	}
	if Role("owner").Valid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}

func TestPostLikeUniquePerUser(t *testing.T) {
	dsn := fmt.Sprintf("file:db-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := gdb.Create(&PostLike{PostID: 1, UserID: 2}).Error; err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := gdb.Create(&PostLike{PostID: 1, UserID: 2}).Error; err == nil {
		t.Fatalf("expected duplicate like to violate the unique index")
	}
	if err := gdb.Create(&PostLike{PostID: 1, UserID: 3}).Error; err != nil {
		t.Fatalf("like from another user: %v", err)
	}

	var count int64
	if err := gdb.Model(&PostLike{}).Where("post_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 likes, got %d", count)
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: "Lovelace"}).DisplayName(); got != "Ada Lovelace" {
		t.Fatalf("expected full name, got %q", got)
	}
	if got := (User{Email: "ada@example.com"}).DisplayName(); got != "ada@example.com" {
		t.Fatalf("expected email fallback, got %q", got)
	}
}
