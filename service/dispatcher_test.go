package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore is an in-memory DispatchStore.
type fakeStore struct {
	users         []models.User
	notifications []models.Notification
	books         []models.Book

	insertNotificationErr error
}

func (f *fakeStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListUsers(context.Context) ([]models.User, error) {
	out := make([]models.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *fakeStore) UsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		for i := range f.users {
			if f.users[i].ID == id {
				out = append(out, f.users[i])
			}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertNotification(_ context.Context, n *models.Notification) (primitive.ObjectID, error) {
	if f.insertNotificationErr != nil {
		return primitive.NilObjectID, f.insertNotificationErr
	}
	n.ID = primitive.NewObjectID()
	f.notifications = append(f.notifications, *n)
	return n.ID, nil
}

func (f *fakeStore) OwnerHasBook(_ context.Context, owner primitive.ObjectID, title, author string) (bool, error) {
	key := models.BookDedupKey(title, author)
	for i := range f.books {
		b := &f.books[i]
		if b.OwnerID != nil && *b.OwnerID == owner && models.BookDedupKey(b.Title, b.Author) == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertBook(_ context.Context, b *models.Book) (primitive.ObjectID, error) {
	b.ID = primitive.NewObjectID()
	f.books = append(f.books, *b)
	return b.ID, nil
}

func (f *fakeStore) booksOwnedBy(owner primitive.ObjectID) []models.Book {
	var out []models.Book
	for _, b := range f.books {
		if b.OwnerID != nil && *b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out
}

// fakeMailer records sends and can fail for chosen recipients.
type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.failFor[to] {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestUsers() (admin, alice, bob models.User) {
	admin = models.User{ID: primitive.NewObjectID(), Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
	alice = models.User{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@example.com", Role: models.RoleRegular}
	bob = models.User{ID: primitive.NewObjectID(), Username: "bob", Email: "bob@example.com", Role: models.RoleRegular}
	return
}

func TestDispatchRequiresAdmin(t *testing.T) {
	admin, alice, bob := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice, bob}}
	d := &Dispatcher{Store: store}

	_, err := d.Dispatch(context.Background(), &alice, DispatchRequest{
		Title:   "hi",
		Message: "msg",
		Type:    models.NotificationGeneral,
		Target:  TargetSelector{Kind: TargetAll},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, store.notifications, "no mutation may happen on a denied dispatch")

	_, err = d.Dispatch(context.Background(), nil, DispatchRequest{Target: TargetSelector{Kind: TargetAll}})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDispatchToAllExcludesAdmin(t *testing.T) {
	admin, alice, bob := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice, bob}}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "maintenance",
		Message: "downtime tonight",
		Type:    models.NotificationSystem,
		Target:  TargetSelector{Kind: TargetAll},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.Len(t, store.notifications, 2)
	for _, n := range store.notifications {
		assert.NotEqual(t, admin.ID, n.UserID)
		assert.Equal(t, "maintenance", n.Title)
		assert.Equal(t, models.NotificationSystem, n.Type)
		assert.False(t, n.IsRead)
	}
}

func TestDispatchRegularSelectorResolvesLikeAll(t *testing.T) {
	admin, alice, bob := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice, bob}}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "t",
		Message: "m",
		Type:    models.NotificationGeneral,
		Target:  TargetSelector{Kind: TargetRegular},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestDispatchExplicitSetStillExcludesAdmin(t *testing.T) {
	admin, alice, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice}}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "t",
		Message: "m",
		Type:    models.NotificationGeneral,
		Target:  TargetSelector{Kind: TargetUsers, UserIDs: []primitive.ObjectID{admin.ID, alice.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, store.notifications, 1)
	assert.Equal(t, alice.ID, store.notifications[0].UserID)
}

func TestDispatchSingleUnknownUserCreatesNothing(t *testing.T) {
	admin, alice, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice}}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "t",
		Message: "m",
		Type:    models.NotificationGeneral,
		Target:  TargetSelector{Kind: TargetUser, UserID: primitive.NewObjectID()},
	})
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestDispatchUnknownSelectorFails(t *testing.T) {
	admin, _, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin}}
	d := &Dispatcher{Store: store}

	_, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "t",
		Message: "m",
		Target:  TargetSelector{Kind: "everyone"},
	})
	assert.Error(t, err)
}

func recommendedBook() *models.Book {
	published := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	return &models.Book{
		ID:            primitive.NewObjectID(),
		Title:         "Dune",
		Author:        "Frank Herbert",
		Description:   "Desert planet",
		PublishedDate: &published,
		ISBN:          "9780441013593",
		IsRead:        true,
		ViewCount:     42,
	}
}

func TestDispatchSaveToListClonesOnce(t *testing.T) {
	admin, alice, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice}}
	d := &Dispatcher{Store: store}

	book := recommendedBook()
	req := DispatchRequest{
		Title:      "Recommended for you",
		Message:    "You might like this",
		Type:       models.NotificationRecommendation,
		Book:       book,
		SaveToList: true,
		Target:     TargetSelector{Kind: TargetUser, UserID: alice.ID},
	}

	created, err := d.Dispatch(context.Background(), &admin, req)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	owned := store.booksOwnedBy(alice.ID)
	require.Len(t, owned, 1)
	clone := owned[0]
	assert.Equal(t, book.Title, clone.Title)
	assert.Equal(t, book.Author, clone.Author)
	assert.Equal(t, book.Description, clone.Description)
	assert.Equal(t, book.ISBN, clone.ISBN)
	require.NotNil(t, clone.PublishedDate)
	assert.True(t, clone.PublishedDate.Equal(*book.PublishedDate))
	assert.False(t, clone.IsRead, "clones always start unread")
	assert.Zero(t, clone.ViewCount)
	assert.NotEqual(t, book.ID, clone.ID, "clone must have its own identity")

	// Second dispatch: another notification, but no second clone.
	created, err = d.Dispatch(context.Background(), &admin, req)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, store.booksOwnedBy(alice.ID), 1)
	assert.Len(t, store.notifications, 2)
}

func TestDispatchCloneMatchIgnoresCaseAndSpace(t *testing.T) {
	admin, alice, _ := newTestUsers()
	owner := alice.ID
	store := &fakeStore{
		users: []models.User{admin, alice},
		books: []models.Book{{
			ID:      primitive.NewObjectID(),
			OwnerID: &owner,
			Title:   "  dune ",
			Author:  "FRANK HERBERT",
		}},
	}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:      "Recommended",
		Message:    "m",
		Type:       models.NotificationRecommendation,
		Book:       recommendedBook(),
		SaveToList: true,
		Target:     TargetSelector{Kind: TargetUser, UserID: alice.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Len(t, store.booksOwnedBy(alice.ID), 1, "equivalent title/author pair must not be cloned again")
}

func TestDispatchEmailFailureDoesNotAbort(t *testing.T) {
	admin, alice, bob := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice, bob}}
	mailer := &fakeMailer{failFor: map[string]bool{alice.Email: true}}
	d := &Dispatcher{Store: store, Mail: mailer}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:     "t",
		Message:   "m",
		Type:      models.NotificationGeneral,
		SendEmail: true,
		Target:    TargetSelector{Kind: TargetAll},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created, "a mail failure must not roll back the notification")
	assert.Len(t, store.notifications, 2)
	assert.Equal(t, []string{bob.Email}, mailer.sent)
}

func TestDispatchWithoutMailerSkipsEmail(t *testing.T) {
	admin, alice, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice}}
	d := &Dispatcher{Store: store, Mail: nil}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:     "t",
		Message:   "m",
		Type:      models.NotificationGeneral,
		SendEmail: true,
		Target:    TargetSelector{Kind: TargetAll},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestDispatchCountsOnlyCreatedNotifications(t *testing.T) {
	admin, alice, bob := newTestUsers()
	store := &fakeStore{
		users:                 []models.User{admin, alice, bob},
		insertNotificationErr: errors.New("write failed"),
	}
	d := &Dispatcher{Store: store}

	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "t",
		Message: "m",
		Type:    models.NotificationGeneral,
		Target:  TargetSelector{Kind: TargetAll},
	})
	require.NoError(t, err, "target-level failures are not fatal")
	assert.Zero(t, created)
}

func TestDispatchAttachesBookReference(t *testing.T) {
	admin, alice, _ := newTestUsers()
	store := &fakeStore{users: []models.User{admin, alice}}
	d := &Dispatcher{Store: store}

	book := recommendedBook()
	created, err := d.Dispatch(context.Background(), &admin, DispatchRequest{
		Title:   "Recommended",
		Message: "m",
		Type:    models.NotificationRecommendation,
		Book:    book,
		Target:  TargetSelector{Kind: TargetUser, UserID: alice.ID},
	})
	require.NoError(t, err)
	require.Equal(t, 1, created)
	require.NotNil(t, store.notifications[0].BookID)
	assert.Equal(t, book.ID, *store.notifications[0].BookID)
	// Without saveToList no clone is made.
	assert.Empty(t, store.booksOwnedBy(alice.ID))
}
