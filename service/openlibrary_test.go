package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*OpenLibraryClient, func()) {
	srv := httptest.NewServer(handler)
	c := &OpenLibraryClient{
		BaseURL:   srv.URL,
		CoversURL: "https://covers.test",
		Client:    srv.Client(),
	}
	return c, srv.Close
}

func TestSearchByQueryPreservesRemoteOrder(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.json", r.URL.Path)
		require.Equal(t, "dune messiah", r.URL.Query().Get("q"))
		body := map[string]any{"docs": []map[string]any{
			{"title": "Zulu", "author_name": []string{"Z"}, "first_publish_year": 2001, "isbn": []string{"111"}},
			{"title": "Alpha", "author_name": []string{"A"}, "first_publish_year": 1999, "isbn": []string{"222"}},
		}}
		json.NewEncoder(w).Encode(body)
	}))
	defer done()

	results := client.Search(context.Background(), "dune messiah")

	require.Len(t, results, 2)
	// Relevance order from the remote, not alphabetical.
	assert.Equal(t, "Zulu", results[0].Title)
	assert.Equal(t, "Alpha", results[1].Title)
	assert.Equal(t, "111", results[0].ISBN)
	assert.Equal(t, "https://covers.test/b/isbn/111-L.jpg", results[0].CoverURL)
}

func TestSearchByQueryTruncatesToThirty(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		docs := make([]map[string]any, 45)
		for i := range docs {
			docs[i] = map[string]any{"title": fmt.Sprintf("book %02d", i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"docs": docs})
	}))
	defer done()

	results := client.Search(context.Background(), "prolific")

	require.Len(t, results, 30)
	assert.Equal(t, "book 00", results[0].Title)
	assert.Equal(t, "book 29", results[29].Title)
}

func TestSearchByQueryNormalizesMissingFields(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"docs": []map[string]any{
			{}, // everything missing
			{"title": "Named", "author_name": []string{"One", "Two"}},
		}}
		json.NewEncoder(w).Encode(body)
	}))
	defer done()

	results := client.Search(context.Background(), "sparse")

	require.Len(t, results, 2)
	assert.Equal(t, "No Title", results[0].Title)
	assert.Equal(t, "Unknown", results[0].Author)
	assert.Equal(t, "Unknown", results[0].PublishYear)
	assert.Empty(t, results[0].ISBN)
	assert.Empty(t, results[0].CoverURL)
	assert.Equal(t, "One, Two", results[1].Author)
}

func TestEmptyQueryBrowsesSubjectSortedByTitle(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subjects/fiction.json", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("limit"))
		body := map[string]any{"works": []map[string]any{
			{"title": "zebra crossing", "authors": []map[string]any{{"name": "Z"}}, "cover_id": 7},
			{"title": "Apple", "authors": []map[string]any{{"name": "A"}}},
			{"title": "mango", "authors": []map[string]any{{"name": "M"}}, "first_publish_year": 1980},
		}}
		json.NewEncoder(w).Encode(body)
	}))
	defer done()

	results := client.Search(context.Background(), "   ")

	require.Len(t, results, 3)
	// Case-insensitive title order.
	assert.Equal(t, "Apple", results[0].Title)
	assert.Equal(t, "mango", results[1].Title)
	assert.Equal(t, "zebra crossing", results[2].Title)
	// The subject endpoint has no ISBNs; covers come from the cover id.
	for _, r := range results {
		assert.Empty(t, r.ISBN)
	}
	assert.Equal(t, "https://covers.test/b/id/7-L.jpg", results[2].CoverURL)
	assert.Equal(t, "1980", results[1].PublishYear)
}

func TestSearchRemoteErrorsYieldEmptyResults(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "over capacity", http.StatusServiceUnavailable)
		}))
		defer done()

		assert.Empty(t, client.Search(context.Background(), "anything"))
		assert.Empty(t, client.Search(context.Background(), ""))
	})

	t.Run("malformed body", func(t *testing.T) {
		client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer done()

		assert.Empty(t, client.Search(context.Background(), "anything"))
	})

	t.Run("unreachable", func(t *testing.T) {
		client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		done() // close before use

		assert.Empty(t, client.Search(context.Background(), "anything"))
	})
}

func TestSearchEscapesQuery(t *testing.T) {
	var rawQuery string
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"docs": []map[string]any{}})
	}))
	defer done()

	client.Search(context.Background(), "dune & herbert?")

	assert.True(t, strings.HasPrefix(rawQuery, "q="), rawQuery)
	assert.NotContains(t, rawQuery, " ")
	assert.NotContains(t, rawQuery, "&herbert")
}
