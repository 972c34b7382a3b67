// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an account. Followers, Following and LikedPosts are stored as
// arrays by the document store and derived from edge tables by the relational
// store.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"_id" bson:"_id"`
	Username   string    `gorm:"uniqueIndex;not null" json:"username" bson:"username"`
	FullName   string    `gorm:"not null" json:"fullName" bson:"fullName"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Password   string    `gorm:"not null" json:"-" bson:"password"`
	ProfileImg string    `json:"profileImg" bson:"profileImg"`
	CoverImg   string    `json:"coverImg" bson:"coverImg"`
	Bio        string    `json:"bio" bson:"bio"`
	Link       string    `json:"link" bson:"link"`
	Followers  []uint    `gorm:"-" json:"followers" bson:"followers"`
	Following  []uint    `gorm:"-" json:"following" bson:"following"`
	LikedPosts []uint    `gorm:"-" json:"likedPosts" bson:"likedPosts"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EnsureSets replaces nil relationship sets with empty ones so they encode as [].
func (u *User) EnsureSets() {
	if u.Followers == nil {
		u.Followers = []uint{}
	}
	if u.Following == nil {
		u.Following = []uint{}
	}
	if u.LikedPosts == nil {
		u.LikedPosts = []uint{}
	}
}

// IsFollowing reports whether u follows the account with id.
func (u *User) IsFollowing(id uint) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// Actor is the projection of an account embedded in notifications.
type Actor struct {
	ID         uint   `gorm:"primaryKey" json:"_id" bson:"_id"`
	Username   string `json:"username" bson:"username"`
	ProfileImg string `json:"profileImg" bson:"profileImg"`
}

// TableName maps Actor onto the users table.
func (Actor) TableName() string {
	return "users"
}
