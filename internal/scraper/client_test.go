package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DesktopUserAgent, r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(testLogger(), WithTimeout(time.Second))
	resp, err := c.Get(context.Background(), srv.URL, DesktopUserAgent)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClient_Get_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(testLogger())
	_, err := c.Get(context.Background(), srv.URL, DesktopUserAgent)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Contains(t, string(statusErr.Body), "404 page not found")
}

func TestClient_ResolveRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s/short", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		http.Redirect(w, r, "/r/test/comments/abc123/title/?share_id=1", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/r/test/comments/abc123/title/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(testLogger())
	final, err := c.ResolveRedirects(context.Background(), srv.URL+"/s/short", DesktopUserAgent)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/r/test/comments/abc123/title/?share_id=1", final)
}

func TestClient_Get_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(testLogger()).Get(ctx, srv.URL, MobileUserAgent)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
