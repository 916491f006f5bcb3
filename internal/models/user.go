package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account that can author and like posts.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Email       string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password    string    `json:"-"`                             // bcrypt hash, never serialized
	FirebaseUID *string   `json:"-" gorm:"size:128;uniqueIndex"` // set when the account signed in through Firebase
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the public slice of a user embedded in post views.
type UserCompact struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (u User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name}
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
