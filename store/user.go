package store

import (
	"context"

	"github.com/Jamesscott34/DevopsCA/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"username": username}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UpdateUserEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"email": email}})
	return err
}

func (db *DB) UpdateUserPassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": hashedPassword}})
	return err
}

// UpdateUserProfile updates the self-editable profile fields. Nil means "leave unchanged".
func (db *DB) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, email, notes *string) error {
	updates := bson.M{}
	if email != nil {
		updates["email"] = *email
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if len(updates) == 0 {
		return nil
	}
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	return err
}

// SetUserReferral sets or clears the admin-referral book on a user.
func (db *DB) SetUserReferral(ctx context.Context, id primitive.ObjectID, bookID *primitive.ObjectID) error {
	var update bson.M
	if bookID == nil {
		update = bson.M{"$unset": bson.M{"referralBookId": ""}}
	} else {
		update = bson.M{"$set": bson.M{"referralBookId": *bookID}}
	}
	_, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// DeleteUser removes a user and cascades: their notifications are deleted,
// their books survive with the owner reference cleared.
func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	if _, err := db.Notifications().DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return err
	}
	if _, err := db.Books().UpdateMany(ctx, bson.M{"ownerId": id}, bson.M{"$unset": bson.M{"ownerId": ""}}); err != nil {
		return err
	}
	_, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
