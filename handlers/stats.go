package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
)

type StatsHandler struct {
	DB *store.DB
}

// BookStats returns read/unread counts, percentages and top-5 rankings over
// the current user's books (all books for the admin).
func (h *StatsHandler) BookStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	filter := store.BookFilter{}
	if !user.IsAdmin() {
		owner := user.ID
		filter.OwnerID = &owner
	}
	books, err := h.DB.ListBooks(r.Context(), filter)
	if err != nil {
		http.Error(w, `{"error":"failed to compute statistics"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(service.ComputeBookStats(books))
}

// SystemStats returns the admin dashboard projection: book, user and
// notification statistics over the whole store.
func (h *StatsHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	books, err := h.DB.ListBooks(r.Context(), store.BookFilter{})
	if err != nil {
		http.Error(w, `{"error":"failed to compute statistics"}`, http.StatusInternalServerError)
		return
	}
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to compute statistics"}`, http.StatusInternalServerError)
		return
	}
	notifications, err := h.DB.AllNotifications(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to compute statistics"}`, http.StatusInternalServerError)
		return
	}
	stats := service.SystemStats{
		BookStats:         service.ComputeBookStats(books),
		UserStats:         service.ComputeUserStats(users),
		NotificationStats: service.ComputeNotificationStats(notifications),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
