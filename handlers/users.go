package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/store"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersHandler struct {
	DB *store.DB
}

// ListUsers returns all users (admin only). Password hashes are omitted via json:"-".
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(users)
}

// DeleteUser deletes a user by ID (admin only). The admin cannot delete their
// own account; the cascade removes notifications and clears book ownership.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	current, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	if current.ID == id {
		http.Error(w, `{"error":"cannot delete your own account"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), id); err != nil {
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ChangeEmailRequest struct {
	Email string `json:"email"`
}

// ChangeEmail updates a user's email (admin only).
func (h *UsersHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	var req ChangeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		http.Error(w, `{"error":"email cannot be empty"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if existing, _ := h.DB.UserByEmail(r.Context(), email); existing != nil && existing.ID != id {
		http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
		return
	}
	if err := h.DB.UpdateUserEmail(r.Context(), id, email); err != nil {
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	user, _ = h.DB.UserByID(r.Context(), id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type SetReferralRequest struct {
	BookID *string `json:"bookId"` // null clears the referral
}

// SetReferral sets or clears the admin-referral book on a user (admin only).
func (h *UsersHandler) SetReferral(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	var req SetReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	var bookID *primitive.ObjectID
	if req.BookID != nil && *req.BookID != "" {
		parsed, err := primitive.ObjectIDFromHex(*req.BookID)
		if err != nil {
			http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
			return
		}
		book, err := h.DB.BookByID(r.Context(), parsed)
		if err != nil {
			http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
			return
		}
		if book == nil {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
			return
		}
		bookID = &parsed
	}
	if err := h.DB.SetUserReferral(r.Context(), id, bookID); err != nil {
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	user, _ = h.DB.UserByID(r.Context(), id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UserBooks lists one user's books (admin only).
func (h *UsersHandler) UserBooks(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return
	}
	books, err := h.DB.ListBooks(r.Context(), store.BookFilter{OwnerID: &id})
	if err != nil {
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

// Me returns the current user's profile.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

type UpdateMeRequest struct {
	Email *string `json:"email"`
	Notes *string `json:"notes"`
}

// UpdateMe edits the current user's email and free-text notes.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	var email *string
	if req.Email != nil {
		e := strings.TrimSpace(strings.ToLower(*req.Email))
		if e == "" {
			http.Error(w, `{"error":"email cannot be empty"}`, http.StatusBadRequest)
			return
		}
		if existing, _ := h.DB.UserByEmail(r.Context(), e); existing != nil && existing.ID != user.ID {
			http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
			return
		}
		email = &e
	}
	if err := h.DB.UpdateUserProfile(r.Context(), user.ID, email, req.Notes); err != nil {
		http.Error(w, `{"error":"failed to update profile"}`, http.StatusInternalServerError)
		return
	}
	updated, _ := h.DB.UserByID(r.Context(), user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// DeleteMe deletes the current user's own account. The admin account cannot
// self-delete.
func (h *UsersHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if user.IsAdmin() {
		http.Error(w, `{"error":"admin account cannot be deleted"}`, http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), user.ID); err != nil {
		http.Error(w, `{"error":"failed to delete account"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
