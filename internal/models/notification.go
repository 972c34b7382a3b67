package models

import (
	"time"
)

// NotificationType is the kind of action that produced a notification.
type NotificationType string

const (
	NotificationFollow NotificationType = "follow"
	NotificationLike   NotificationType = "like"
)

// Notification records an actor's like or follow directed at a recipient.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"_id" bson:"_id"`
	FromID    uint             `gorm:"not null;index" json:"-" bson:"from"`
	From      *Actor           `gorm:"foreignKey:FromID;constraint:OnDelete:CASCADE" json:"from" bson:"-"`
	ToID      uint             `gorm:"not null;index" json:"to" bson:"to"`
	Type      NotificationType `gorm:"type:varchar(16);not null" json:"type" bson:"type"`
	Read      bool             `gorm:"not null;default:false" json:"read" bson:"read"`
	CreatedAt time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt" bson:"updatedAt"`
}
