package recommender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchAlternative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommend", r.URL.Path)
		assert.Equal(t, "P1", r.URL.Query().Get("original_id"))
		assert.Equal(t, "R1", r.URL.Query().Get("rejected_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"alternative": {
				"original_product_id": "P1",
				"replacement_id": "R9",
				"name": "Fresh Candidate",
				"brand": "BrandC",
				"price": 85.5,
				"brand_popularity": 8
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	alt, err := client.FetchAlternative(context.Background(), "P1", "R1")
	require.NoError(t, err)
	assert.Equal(t, "R9", alt.ReplacementID)
	assert.Equal(t, 85.5, alt.Price)
}

func TestFetchAlternativeOmitsEmptyRejectedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["rejected_id"]
		assert.False(t, present)
		w.Write([]byte(`{"alternative": {"replacement_id": "R2", "name": "Alt"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	_, err := client.FetchAlternative(context.Background(), "P1", "")
	require.NoError(t, err)
}

func TestFetchAlternativeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no candidates", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	_, err := client.FetchAlternative(context.Background(), "P1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchAlternativeEmptyCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"alternative": {}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, zerolog.Nop())
	_, err := client.FetchAlternative(context.Background(), "P1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate")
}
