package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationsHandler struct {
	DB         *store.DB
	Dispatcher *service.Dispatcher
}

// List returns the current user's notifications newest first; admin sees all.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var notifications []models.Notification
	var err error
	if user.IsAdmin() {
		notifications, err = h.DB.AllNotifications(r.Context())
	} else {
		notifications, err = h.DB.NotificationsForUser(r.Context(), user.ID)
	}
	if err != nil {
		http.Error(w, `{"error":"failed to list notifications"}`, http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

// MarkRead marks one of the user's notifications as read. Re-marking an
// already-read notification succeeds without effect.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid notification id"}`, http.StatusBadRequest)
		return
	}
	found, err := h.DB.MarkNotificationRead(r.Context(), id, user.ID)
	if err != nil {
		http.Error(w, `{"error":"failed to update notification"}`, http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, `{"error":"notification not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Notification marked as read."})
}

// MarkAllRead marks every unread notification of the current user.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	count, err := h.DB.MarkAllNotificationsRead(r.Context(), user.ID)
	if err != nil {
		http.Error(w, `{"error":"failed to update notifications"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": fmt.Sprintf("%d notification(s) marked as read.", count),
		"count":   count,
	})
}

// UnreadCount returns the badge count for the navigation bar.
func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	count, err := h.DB.CountUnreadNotifications(r.Context(), user.ID)
	if err != nil {
		http.Error(w, `{"error":"failed to count notifications"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"unreadCount": count})
}

type DispatchBody struct {
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Type       string                 `json:"type"`
	BookID     string                 `json:"bookId"`
	SaveToList bool                   `json:"saveToList"`
	SendEmail  bool                   `json:"sendEmail"`
	Target     service.TargetSelector `json:"target"`
}

// Dispatch fans a notification out to the selected users (admin only).
func (h *NotificationsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var body DispatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" || strings.TrimSpace(body.Message) == "" {
		http.Error(w, `{"error":"title and message required"}`, http.StatusBadRequest)
		return
	}
	if body.Type == "" {
		body.Type = models.NotificationGeneral
	}
	if !validNotificationType(body.Type) {
		http.Error(w, `{"error":"invalid notification type"}`, http.StatusBadRequest)
		return
	}

	req := service.DispatchRequest{
		Title:      body.Title,
		Message:    body.Message,
		Type:       body.Type,
		SaveToList: body.SaveToList,
		SendEmail:  body.SendEmail,
		Target:     body.Target,
	}
	if body.BookID != "" {
		bookID, err := primitive.ObjectIDFromHex(body.BookID)
		if err != nil {
			http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
			return
		}
		book, err := h.DB.BookByID(r.Context(), bookID)
		if err != nil {
			http.Error(w, `{"error":"failed to load book"}`, http.StatusInternalServerError)
			return
		}
		if book == nil {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
			return
		}
		req.Book = book
	}

	created, err := h.Dispatcher.Dispatch(r.Context(), user, req)
	if errors.Is(err, service.ErrPermissionDenied) {
		http.Error(w, `{"error":"access denied"}`, http.StatusForbidden)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"failed to dispatch notification"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"created": created})
}

func validNotificationType(t string) bool {
	for _, v := range models.ValidNotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}
