package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID       *primitive.ObjectID `bson:"ownerId,omitempty" json:"ownerId,omitempty"` // nil after owner deletion
	Title         string              `bson:"title" json:"title"`
	Author        string              `bson:"author" json:"author"`
	Description   string              `bson:"description,omitempty" json:"description,omitempty"`
	PublishedDate *time.Time          `bson:"publishedDate,omitempty" json:"publishedDate,omitempty"`
	ISBN          string              `bson:"isbn,omitempty" json:"isbn,omitempty"` // unique when set
	IsRead        bool                `bson:"isRead" json:"isRead"`
	ViewCount     int64               `bson:"viewCount" json:"viewCount"`
	CoverURL      string              `bson:"coverUrl,omitempty" json:"coverUrl,omitempty"`
	CoverS3Key    string              `bson:"coverS3Key,omitempty" json:"-"` // archived cover object in S3
	Tags          []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	DedupKey      string              `bson:"dedupKey" json:"-"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// BookDedupKey builds the normalized title/author key used to detect
// duplicate books within one user's list.
func BookDedupKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author))
}
