package models

import (
	"time"
)

// Comment belongs to exactly one post and is deleted with it.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"_id" bson:"_id"`
	PostID    uint      `gorm:"not null;index" json:"-" bson:"-"`
	UserID    uint      `gorm:"not null;index" json:"-" bson:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user" bson:"-"`
	Text      string    `gorm:"type:text;not null" json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
