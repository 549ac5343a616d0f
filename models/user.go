package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

var ValidRoles = []string{RoleAdmin, RoleRegular}

type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Username       string              `bson:"username" json:"username"`
	Email          string              `bson:"email" json:"email"`
	Password       string              `bson:"password" json:"-"` // bcrypt hash
	Role           string              `bson:"role" json:"role"`  // admin or regular
	ReferralBookID *primitive.ObjectID `bson:"referralBookId,omitempty" json:"referralBookId,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
