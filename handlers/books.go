package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BooksHandler struct {
	DB     *store.DB
	Covers *service.CoverStore // nil when no bucket is configured
}

type BookRequest struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"` // YYYY-MM-DD
	ISBN          string   `json:"isbn"`
	IsRead        bool     `json:"isRead"`
	Tags          []string `json:"tags"`
}

// List returns the user's books; admin sees everyone's. Supports ?is_read=
// and ?search= filters.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	filter := store.BookFilter{Search: r.URL.Query().Get("search")}
	if !user.IsAdmin() {
		owner := user.ID
		filter.OwnerID = &owner
	}
	if v := r.URL.Query().Get("is_read"); v != "" {
		isRead := strings.EqualFold(v, "true")
		filter.IsRead = &isRead
	}
	books, err := h.DB.ListBooks(r.Context(), filter)
	if err != nil {
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

// ReadBooks and UnreadBooks are fixed-filter variants of List.
func (h *BooksHandler) ReadBooks(w http.ResponseWriter, r *http.Request) {
	h.listByReadStatus(w, r, true)
}

func (h *BooksHandler) UnreadBooks(w http.ResponseWriter, r *http.Request) {
	h.listByReadStatus(w, r, false)
}

func (h *BooksHandler) listByReadStatus(w http.ResponseWriter, r *http.Request, isRead bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	filter := store.BookFilter{IsRead: &isRead}
	if !user.IsAdmin() {
		owner := user.ID
		filter.OwnerID = &owner
	}
	books, err := h.DB.ListBooks(r.Context(), filter)
	if err != nil {
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

// Create adds a book owned by the current user.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		http.Error(w, `{"error":"title and author required"}`, http.StatusBadRequest)
		return
	}
	isbn := strings.TrimSpace(req.ISBN)
	if isbn != "" {
		exists, err := h.DB.ISBNExists(r.Context(), isbn)
		if err != nil {
			http.Error(w, `{"error":"failed to add book"}`, http.StatusInternalServerError)
			return
		}
		if exists {
			http.Error(w, `{"error":"a book with this ISBN already exists"}`, http.StatusConflict)
			return
		}
	}
	var published *time.Time
	if req.PublishedDate != "" {
		t, err := time.Parse("2006-01-02", req.PublishedDate)
		if err != nil {
			http.Error(w, `{"error":"publishedDate must be YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		published = &t
	}
	owner := user.ID
	book := &models.Book{
		OwnerID:       &owner,
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		PublishedDate: published,
		ISBN:          isbn,
		IsRead:        req.IsRead,
		Tags:          cleanTags(req.Tags),
		CreatedAt:     time.Now(),
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		http.Error(w, `{"error":"failed to add book"}`, http.StatusInternalServerError)
		return
	}
	book.ID = id
	if err := h.DB.EnsureTags(r.Context(), book.Tags); err != nil {
		log.Printf("ensure tags: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

// Get returns a single book and bumps its view counter.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadOwnedBook(w, r)
	if !ok {
		return
	}
	if err := h.DB.IncrementViewCount(r.Context(), book.ID); err != nil {
		log.Printf("increment view count: %v", err)
	} else {
		book.ViewCount++
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

// Update replaces the editable fields of a book.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadOwnedBook(w, r)
	if !ok {
		return
	}
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		http.Error(w, `{"error":"title and author required"}`, http.StatusBadRequest)
		return
	}
	isbn := strings.TrimSpace(req.ISBN)
	if isbn != "" && isbn != book.ISBN {
		exists, err := h.DB.ISBNExists(r.Context(), isbn)
		if err != nil {
			http.Error(w, `{"error":"failed to update book"}`, http.StatusInternalServerError)
			return
		}
		if exists {
			http.Error(w, `{"error":"a book with this ISBN already exists"}`, http.StatusConflict)
			return
		}
	}
	var published *time.Time
	if req.PublishedDate != "" {
		t, err := time.Parse("2006-01-02", req.PublishedDate)
		if err != nil {
			http.Error(w, `{"error":"publishedDate must be YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		published = &t
	}
	book.Title = req.Title
	book.Author = req.Author
	book.Description = req.Description
	book.PublishedDate = published
	book.ISBN = isbn
	book.IsRead = req.IsRead
	book.Tags = cleanTags(req.Tags)
	if err := h.DB.UpdateBook(r.Context(), book.ID, book); err != nil {
		http.Error(w, `{"error":"failed to update book"}`, http.StatusInternalServerError)
		return
	}
	if err := h.DB.EnsureTags(r.Context(), book.Tags); err != nil {
		log.Printf("ensure tags: %v", err)
	}
	updated, _ := h.DB.BookByID(r.Context(), book.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete removes a book and its archived cover.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadOwnedBook(w, r)
	if !ok {
		return
	}
	coverKey, err := h.DB.DeleteBook(r.Context(), book.ID)
	if err != nil {
		http.Error(w, `{"error":"failed to delete book"}`, http.StatusInternalServerError)
		return
	}
	if h.Covers != nil && coverKey != "" {
		if err := h.Covers.Delete(r.Context(), coverKey); err != nil {
			log.Printf("delete cover %s: %v", coverKey, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleRead flips the read flag.
func (h *BooksHandler) ToggleRead(w http.ResponseWriter, r *http.Request) {
	book, ok := h.loadOwnedBook(w, r)
	if !ok {
		return
	}
	updated, err := h.DB.ToggleBookRead(r.Context(), book.ID)
	if err != nil {
		http.Error(w, `{"error":"failed to update book"}`, http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Cover streams the archived cover image. Public so <img src> works without a
// bearer token.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil || book == nil {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	if book.CoverS3Key == "" || h.Covers == nil {
		http.Error(w, `{"error":"no cover"}`, http.StatusNotFound)
		return
	}
	body, contentType, err := h.Covers.Open(r.Context(), book.CoverS3Key)
	if err != nil {
		http.Error(w, `{"error":"failed to load cover"}`, http.StatusInternalServerError)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

// loadOwnedBook fetches the book in the URL and checks the current user may
// touch it: admins may touch any book, others only their own. Writes the
// error response itself when it returns !ok.
func (h *BooksHandler) loadOwnedBook(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return nil, false
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to load book"}`, http.StatusInternalServerError)
		return nil, false
	}
	if book == nil {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return nil, false
	}
	if !user.IsAdmin() && (book.OwnerID == nil || *book.OwnerID != user.ID) {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return nil, false
	}
	return book, true
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(t)]; dup {
			continue
		}
		seen[strings.ToLower(t)] = struct{}{}
		out = append(out, t)
	}
	return out
}
