package store

import (
	"context"

	"github.com/Jamesscott34/DevopsCA/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookFilter narrows ListBooks. Nil/empty fields are ignored.
type BookFilter struct {
	OwnerID *primitive.ObjectID
	IsRead  *bool
	Search  string // case-insensitive match on title, author or description
}

func (f BookFilter) query() bson.M {
	q := bson.M{}
	if f.OwnerID != nil {
		q["ownerId"] = *f.OwnerID
	}
	if f.IsRead != nil {
		q["isRead"] = *f.IsRead
	}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexQuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
			bson.M{"description": pattern},
		}
	}
	return q
}

// regexQuoteMeta escapes regex metacharacters so user input is matched literally.
func regexQuoteMeta(s string) string {
	const special = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(special); j++ {
			if s[i] == special[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	book.DedupKey = models.BookDedupKey(book.Title, book.Author)
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ListBooks(ctx context.Context, filter BookFilter) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, filter.query(), options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook replaces the editable fields of a book by ID.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, book *models.Book) error {
	update := bson.M{
		"title":       book.Title,
		"author":      book.Author,
		"description": book.Description,
		"isRead":      book.IsRead,
		"tags":        book.Tags,
		"dedupKey":    models.BookDedupKey(book.Title, book.Author),
	}
	unset := bson.M{}
	if book.PublishedDate != nil {
		update["publishedDate"] = *book.PublishedDate
	} else {
		unset["publishedDate"] = ""
	}
	if book.ISBN != "" {
		update["isbn"] = book.ISBN
	} else {
		unset["isbn"] = ""
	}
	change := bson.M{"$set": update}
	if len(unset) > 0 {
		change["$unset"] = unset
	}
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, change)
	return err
}

// DeleteBook removes a book by ID. Returns the archived cover's S3 key (if any)
// so the caller can delete the object too. Notifications referencing the book
// keep their rows with the reference cleared.
func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (coverS3Key string, err error) {
	var book models.Book
	err = db.Books().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	_, err = db.Notifications().UpdateMany(ctx, bson.M{"bookId": id}, bson.M{"$unset": bson.M{"bookId": ""}})
	if err != nil {
		return book.CoverS3Key, err
	}
	return book.CoverS3Key, nil
}

// ToggleBookRead flips isRead in a single atomic update and returns the
// updated book, or nil when the book does not exist.
func (db *DB) ToggleBookRead(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	pipeline := bson.A{bson.M{"$set": bson.M{"isRead": bson.M{"$not": "$isRead"}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var book models.Book
	err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// IncrementViewCount bumps the monotone view counter on each display.
func (db *DB) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}

// OwnerHasBook reports whether the user already owns a book with the same
// normalized title/author pair.
func (db *DB) OwnerHasBook(ctx context.Context, owner primitive.ObjectID, title, author string) (bool, error) {
	n, err := db.Books().CountDocuments(ctx, bson.M{
		"ownerId":  owner,
		"dedupKey": models.BookDedupKey(title, author),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (db *DB) ISBNExists(ctx context.Context, isbn string) (bool, error) {
	n, err := db.Books().CountDocuments(ctx, bson.M{"isbn": isbn})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AllISBNs returns every ISBN currently in the catalog, for the allocator.
func (db *DB) AllISBNs(ctx context.Context) (map[string]struct{}, error) {
	values, err := db.Books().Distinct(ctx, "isbn", bson.M{"isbn": bson.M{"$exists": true}})
	if err != nil {
		return nil, err
	}
	isbns := make(map[string]struct{}, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			isbns[s] = struct{}{}
		}
	}
	return isbns, nil
}
