package store

import (
	"context"

	"github.com/Jamesscott34/DevopsCA/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertNotification(ctx context.Context, n *models.Notification) (primitive.ObjectID, error) {
	res, err := db.Notifications().InsertOne(ctx, n, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// NotificationsForUser lists a user's notifications, newest first.
func (db *DB) NotificationsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return db.findNotifications(ctx, bson.M{"userId": userID})
}

// AllNotifications lists every notification, newest first (admin view).
func (db *DB) AllNotifications(ctx context.Context) ([]models.Notification, error) {
	return db.findNotifications(ctx, bson.M{})
}

func (db *DB) findNotifications(ctx context.Context, query bson.M) ([]models.Notification, error) {
	cur, err := db.Notifications().Find(ctx, query, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead sets isRead on the user's notification. The transition
// is idempotent: re-marking an already-read notification is a no-op. Returns
// false when no notification with that ID belongs to the user.
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	res, err := db.Notifications().UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// MarkAllNotificationsRead marks every unread notification of the user as read
// and returns how many changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := db.Notifications().UpdateMany(ctx,
		bson.M{"userId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (db *DB) CountUnreadNotifications(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return db.Notifications().CountDocuments(ctx, bson.M{"userId": userID, "isRead": false})
}
