package models

import (
	"time"
)

// Post is a titled text entry with an optional image, owned by one user.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Image       *string   `json:"image" gorm:"size:255"` // storage path, nil when the post has no image
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	Author      User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostForm is the multipart form accepted when creating or editing a post.
// The image part is read separately from the request.
type PostForm struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
}

// PostView is a post enriched with its author and the viewer-relative like state.
type PostView struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Image       *string     `json:"image"`
	ImageURL    *string     `json:"image_url"`
	UserID      uint        `json:"user_id"`
	Author      UserCompact `json:"author"`
	IsLiked     bool        `json:"is_liked"`
	LikesCount  int64       `json:"likes_count"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// View projects the post together with like data computed by the caller.
func (p Post) View(likesCount int64, isLiked bool) PostView {
	return PostView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Image:       p.Image,
		UserID:      p.UserID,
		Author:      p.Author.ToCompact(),
		IsLiked:     isLiked,
		LikesCount:  likesCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
