package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRegistry_Page(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		resp := pageResponse{
			Records: []recordDTO{
				{ID: "rec-1", Inputs: map[string]any{"a": float64(1)}},
			},
			NextCursor: "cursor-2",
			HasMore:    true,
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	reg := New(srv.URL, "sk-test", time.Second)
	page, err := reg.Page(context.Background(), "ds-1", "")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "rec-1", page.Records[0].ID)
	assert.True(t, page.HasMore)
	assert.Equal(t, "cursor-2", page.NextCursor)
}

func TestHTTPRegistry_Page_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := New(srv.URL, "sk-test", time.Second)
	_, err := reg.Page(context.Background(), "ds-1", "")
	require.Error(t, err)
}
