package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comment belongs to exactly one post and is never addressed on its own.
type Comment struct {
	gorm.Model
	PostID  uint   `gorm:"index;not null" json:"postId"`
	UserID  uint   `gorm:"index;not null" json:"authorId"`
	User    User   `json:"author"`
	Content string `gorm:"type:text;not null" json:"content"`
	Edited  bool   `gorm:"default:false" json:"edited"`
	// Replies are appended in order and live inside the comment row.
	Replies datatypes.JSONSlice[CommentReply] `gorm:"type:json" json:"replies"`
}

// CommentReply is a single nested reply.
type CommentReply struct {
	UserID    uint      `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
