package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification type constants.
const (
	NotificationRecommendation = "recommendation"
	NotificationGeneral        = "general"
	NotificationSystem         = "system"
)

var ValidNotificationTypes = []string{
	NotificationRecommendation,
	NotificationGeneral,
	NotificationSystem,
}

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Type      string              `bson:"type" json:"type"`
	BookID    *primitive.ObjectID `bson:"bookId,omitempty" json:"bookId,omitempty"` // nil after book deletion
	IsRead    bool                `bson:"isRead" json:"isRead"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
