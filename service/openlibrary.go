package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	openLibraryBase  = "https://openlibrary.org"
	openLibraryCover = "https://covers.openlibrary.org"

	searchResultLimit = 30
	defaultSubject    = "fiction"
)

// CatalogResult is the normalized shape of one Open Library record.
type CatalogResult struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishYear string `json:"publishYear"`
	ISBN        string `json:"isbn"`
	CoverURL    string `json:"coverUrl"`
}

// OpenLibraryClient queries the Open Library search and subject endpoints.
// Lookups are best effort: network failures, non-200 responses and malformed
// bodies all yield an empty result set, never an error.
type OpenLibraryClient struct {
	BaseURL   string
	CoversURL string
	Client    *http.Client
}

// NewOpenLibraryClient has a short timeout so slow responses don't block the
// request indefinitely.
func NewOpenLibraryClient() *OpenLibraryClient {
	return &OpenLibraryClient{
		BaseURL:   openLibraryBase,
		CoversURL: openLibraryCover,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		ISBN             []string `json:"isbn"`
	} `json:"docs"`
}

type subjectResponse struct {
	Works []struct {
		Title string `json:"title"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
		FirstPublishYear int   `json:"first_publish_year"`
		CoverID          int64 `json:"cover_id"`
	} `json:"works"`
}

// Search returns up to 30 normalized results. A non-empty query hits the
// search endpoint and preserves the remote relevance order; an empty query
// browses the default subject sorted case-insensitively by title.
func (c *OpenLibraryClient) Search(ctx context.Context, query string) []CatalogResult {
	if strings.TrimSpace(query) != "" {
		return c.searchByQuery(ctx, query)
	}
	return c.browseSubject(ctx, defaultSubject)
}

func (c *OpenLibraryClient) searchByQuery(ctx context.Context, query string) []CatalogResult {
	u := c.BaseURL + "/search.json?q=" + url.QueryEscape(query)
	var data searchResponse
	if !c.getJSON(ctx, u, &data) {
		return nil
	}
	docs := data.Docs
	if len(docs) > searchResultLimit {
		docs = docs[:searchResultLimit]
	}
	results := make([]CatalogResult, 0, len(docs))
	for _, doc := range docs {
		r := CatalogResult{
			Title:       doc.Title,
			Author:      joinAuthors(doc.AuthorName),
			PublishYear: yearString(doc.FirstPublishYear),
		}
		if r.Title == "" {
			r.Title = "No Title"
		}
		if len(doc.ISBN) > 0 && doc.ISBN[0] != "" {
			r.ISBN = doc.ISBN[0]
			r.CoverURL = c.CoversURL + "/b/isbn/" + url.PathEscape(r.ISBN) + "-L.jpg"
		}
		results = append(results, r)
	}
	return results
}

func (c *OpenLibraryClient) browseSubject(ctx context.Context, subject string) []CatalogResult {
	u := fmt.Sprintf("%s/subjects/%s.json?limit=%d", c.BaseURL, subject, searchResultLimit)
	var data subjectResponse
	if !c.getJSON(ctx, u, &data) {
		return nil
	}
	works := data.Works
	if len(works) > searchResultLimit {
		works = works[:searchResultLimit]
	}
	sort.SliceStable(works, func(i, j int) bool {
		return strings.ToLower(works[i].Title) < strings.ToLower(works[j].Title)
	})
	results := make([]CatalogResult, 0, len(works))
	for _, work := range works {
		names := make([]string, 0, len(work.Authors))
		for _, a := range work.Authors {
			if a.Name != "" {
				names = append(names, a.Name)
			}
		}
		r := CatalogResult{
			Title:       work.Title,
			Author:      joinAuthors(names),
			PublishYear: yearString(work.FirstPublishYear),
			// The subject endpoint supplies no ISBN.
		}
		if r.Title == "" {
			r.Title = "No Title"
		}
		if work.CoverID != 0 {
			r.CoverURL = fmt.Sprintf("%s/b/id/%d-L.jpg", c.CoversURL, work.CoverID)
		}
		results = append(results, r)
	}
	return results
}

// getJSON fetches and decodes u into out, reporting success. Failures are
// logged and treated as zero results by the callers.
func (c *OpenLibraryClient) getJSON(ctx context.Context, u string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Printf("open library: %v", err)
		return false
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("open library: %v", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("open library: %s returned %d", req.URL.Path, resp.StatusCode)
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("open library: decode: %v", err)
		return false
	}
	return true
}

func joinAuthors(names []string) string {
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, ", ")
}

func yearString(year int) string {
	if year == 0 {
		return "Unknown"
	}
	return strconv.Itoa(year)
}
