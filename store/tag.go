package store

import (
	"context"
	"strings"

	"github.com/Jamesscott34/DevopsCA/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureTags upserts tag documents for the given names so the tags collection
// stays the authoritative unique-name set.
func (db *DB) EnsureTags(ctx context.Context, names []string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		_, err := db.Tags().UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"name": name}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	cur, err := db.Tags().Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var tags []models.Tag
	if err := cur.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
