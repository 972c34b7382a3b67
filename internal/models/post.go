package models

import (
	"time"
)

// Post is a unit of user content. At least one of Text and Img is set.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"_id" bson:"_id"`
	UserID    uint      `gorm:"not null;index" json:"-" bson:"user"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user" bson:"-"`
	Text      string    `gorm:"type:text" json:"text,omitempty" bson:"text,omitempty"`
	Img       string    `json:"img,omitempty" bson:"img,omitempty"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments" bson:"comments"`
	Likes     []uint    `gorm:"-" json:"likes" bson:"likes"`
	CreatedAt time.Time `gorm:"index" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// EnsureSets replaces nil comment and like lists with empty ones.
func (p *Post) EnsureSets() {
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Likes == nil {
		p.Likes = []uint{}
	}
	if p.User != nil {
		p.User.EnsureSets()
	}
	for i := range p.Comments {
		if p.Comments[i].User != nil {
			p.Comments[i].User.EnsureSets()
		}
	}
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID uint) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
