package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Jamesscott34/DevopsCA/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrPermissionDenied is returned when a non-admin tries to dispatch.
var ErrPermissionDenied = errors.New("permission denied")

// Target selector kinds.
const (
	TargetUser    = "user"    // one user by ID
	TargetAll     = "all"     // every non-admin user
	TargetRegular = "regular" // every regular user (resolves like "all")
	TargetUsers   = "users"   // an explicit set of user IDs
)

// TargetSelector determines which users receive a dispatched notification.
type TargetSelector struct {
	Kind    string               `json:"kind"`
	UserID  primitive.ObjectID   `json:"userId,omitempty"`
	UserIDs []primitive.ObjectID `json:"userIds,omitempty"`
}

// DispatchRequest is the payload of one admin notification dispatch.
type DispatchRequest struct {
	Title      string
	Message    string
	Type       string
	Book       *models.Book // optional recommended book
	SaveToList bool         // clone the recommended book into each target's list
	SendEmail  bool
	Target     TargetSelector
}

// DispatchStore is the slice of the catalog store the dispatcher needs.
type DispatchStore interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	InsertNotification(ctx context.Context, n *models.Notification) (primitive.ObjectID, error)
	OwnerHasBook(ctx context.Context, owner primitive.ObjectID, title, author string) (bool, error)
	InsertBook(ctx context.Context, b *models.Book) (primitive.ObjectID, error)
}

// Mailer sends a plain-text message. Delivery is fire and forget; no
// confirmation is surfaced to the dispatcher beyond the error.
type Mailer interface {
	Send(to, subject, body string) error
}

// Dispatcher fans an admin notification out to its targets: one notification
// row per target, optionally a cloned copy of the recommended book, optionally
// an email. Target-level failures are logged and skipped; only the
// authorization check is fatal to the whole call.
type Dispatcher struct {
	Store DispatchStore
	Mail  Mailer // nil disables email
}

// Dispatch creates the notifications and returns how many were created.
func (d *Dispatcher) Dispatch(ctx context.Context, requester *models.User, req DispatchRequest) (int, error) {
	if requester == nil || !requester.IsAdmin() {
		return 0, ErrPermissionDenied
	}
	targets, err := d.resolveTargets(ctx, req.Target)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range targets {
		target := &targets[i]
		n := &models.Notification{
			UserID:    target.ID,
			Title:     req.Title,
			Message:   req.Message,
			Type:      req.Type,
			CreatedAt: time.Now(),
		}
		if req.Book != nil && !req.Book.ID.IsZero() {
			bookID := req.Book.ID
			n.BookID = &bookID
		}
		if _, err := d.Store.InsertNotification(ctx, n); err != nil {
			log.Printf("dispatch: notification for %s: %v", target.Username, err)
			continue
		}
		created++
		if req.SaveToList && req.Book != nil {
			if err := d.saveToList(ctx, target.ID, req.Book); err != nil {
				log.Printf("dispatch: save book for %s: %v", target.Username, err)
			}
		}
		if req.SendEmail && d.Mail != nil {
			if err := d.Mail.Send(target.Email, req.Title, req.Message); err != nil {
				log.Printf("dispatch: email to %s: %v", target.Email, err)
			}
		}
	}
	return created, nil
}

// resolveTargets expands the selector to concrete users. Admins are excluded
// unconditionally, even when listed explicitly.
func (d *Dispatcher) resolveTargets(ctx context.Context, sel TargetSelector) ([]models.User, error) {
	var users []models.User
	var err error
	switch sel.Kind {
	case TargetUser:
		var u *models.User
		u, err = d.Store.UserByID(ctx, sel.UserID)
		if u != nil {
			users = []models.User{*u}
		}
	case TargetAll, TargetRegular:
		users, err = d.Store.ListUsers(ctx)
	case TargetUsers:
		users, err = d.Store.UsersByIDs(ctx, sel.UserIDs)
	default:
		return nil, errors.New("unknown target selector: " + sel.Kind)
	}
	if err != nil {
		return nil, err
	}
	targets := users[:0]
	for _, u := range users {
		if !u.IsAdmin() {
			targets = append(targets, u)
		}
	}
	return targets, nil
}

// saveToList clones the recommended book into the target's list unless an
// equivalent title/author pair is already there. Clones get their own identity
// and start unread.
func (d *Dispatcher) saveToList(ctx context.Context, targetID primitive.ObjectID, src *models.Book) error {
	exists, err := d.Store.OwnerHasBook(ctx, targetID, src.Title, src.Author)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	owner := targetID
	clone := &models.Book{
		OwnerID:     &owner,
		Title:       src.Title,
		Author:      src.Author,
		Description: src.Description,
		ISBN:        src.ISBN,
		CoverURL:    src.CoverURL,
		CreatedAt:   time.Now(),
	}
	if src.PublishedDate != nil {
		published := *src.PublishedDate
		clone.PublishedDate = &published
	}
	_, err = d.Store.InsertBook(ctx, clone)
	return err
}
