package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Tag is a unique label shared across books. Books reference tags by name.
type Tag struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
