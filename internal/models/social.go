package models

import (
	"time"
)

// Follow is an edge of the social graph. A row means FollowerID follows FolloweeID.
type Follow struct {
	ID         uint  `gorm:"primaryKey"`
	FollowerID uint  `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	FolloweeID uint  `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	Follower   *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee   *User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}

// Like records that UserID liked PostID.
type Like struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_like_pair;index"`
	PostID    uint  `gorm:"not null;uniqueIndex:idx_like_pair;index"`
	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post      *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
