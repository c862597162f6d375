package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a platform user stored in MongoDB. The following and
// followers sets are always mirrored: B in A.following iff A in B.followers.
type User struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Username       string               `json:"username" bson:"username"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"-" bson:"password,omitempty"`
	GoogleID       string               `json:"-" bson:"google_id,omitempty"`
	DisplayName    string               `json:"display_name" bson:"display_name"`
	ProfilePicture string               `json:"profile_picture" bson:"profile_picture"`
	Bio            string               `json:"bio" bson:"bio"`
	Following      []primitive.ObjectID `json:"following" bson:"following"`
	Followers      []primitive.ObjectID `json:"followers" bson:"followers"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// UserCompact is the projection embedded in follower lists, conversations
// and enriched notifications.
type UserCompact struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Username       string             `json:"username" bson:"username"`
	DisplayName    string             `json:"display_name" bson:"display_name"`
	ProfilePicture string             `json:"profile_picture" bson:"profile_picture"`
}

// ToCompact returns the compact projection of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
	}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleSigninRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type UpdateProfileRequest struct {
	DisplayName    string `json:"display_name,omitempty" validate:"omitempty,max=30"`
	ProfilePicture string `json:"profile_picture,omitempty" validate:"omitempty,url"`
	Bio            string `json:"bio,omitempty" validate:"omitempty,max=160"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
