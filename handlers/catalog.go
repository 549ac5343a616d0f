package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
)

type CatalogHandler struct {
	DB      *store.DB
	Library *service.OpenLibraryClient
	Covers  *service.CoverStore // nil when no bucket is configured
}

type CatalogSearchResponse struct {
	Query   string                  `json:"query"`
	Results []service.CatalogResult `json:"results"`
}

// Search proxies an Open Library lookup. Failures upstream surface as an
// empty result list, matching the non-critical nature of catalog browsing.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	results := h.Library.Search(r.Context(), query)
	if results == nil {
		results = []service.CatalogResult{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CatalogSearchResponse{Query: query, Results: results})
}

type ImportRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	PublishedDate string `json:"publishedDate"` // "YYYY" or "YYYY-MM-DD"
	ISBN          string `json:"isbn"`
	CoverURL      string `json:"coverUrl"`
}

// Import saves a record picked from Open Library search results into the
// current user's list, generating a synthetic ISBN when the record has none.
func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req ImportRequest
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
	if isbn == "" || strings.HasPrefix(strings.ToUpper(isbn), service.SyntheticISBNPrefix) {
		existing, err := h.DB.AllISBNs(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to import book"}`, http.StatusInternalServerError)
			return
		}
		isbn = service.AllocateISBN(isbn, existing)
	} else {
		exists, err := h.DB.ISBNExists(r.Context(), isbn)
		if err != nil {
			http.Error(w, `{"error":"failed to import book"}`, http.StatusInternalServerError)
			return
		}
		if exists {
			http.Error(w, `{"error":"a book with this ISBN already exists"}`, http.StatusConflict)
			return
		}
	}

	owner := user.ID
	book := &models.Book{
		OwnerID:       &owner,
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		PublishedDate: parseImportDate(req.PublishedDate),
		ISBN:          isbn,
		CoverURL:      req.CoverURL,
		CreatedAt:     time.Now(),
	}

	if h.Covers != nil && req.CoverURL != "" {
		key, err := h.Covers.Archive(r.Context(), req.CoverURL)
		if err != nil {
			log.Printf("archive cover: %v", err)
		} else {
			book.CoverS3Key = key
		}
	}

	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		http.Error(w, `{"error":"failed to import book"}`, http.StatusInternalServerError)
		return
	}
	book.ID = id
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

// Tags lists every known tag name.
func (h *CatalogHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.DB.ListTags(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list tags"}`, http.StatusInternalServerError)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tags)
}

// parseImportDate accepts a bare year ("1976" becomes Jan 1 1976) or a full
// YYYY-MM-DD date. Anything unparseable degrades to a nil date rather than
// failing the import.
func parseImportDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if len(raw) == 4 {
		raw += "-01-01"
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}
