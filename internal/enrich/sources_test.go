package enrich

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savesense/internal/domain"
	"savesense/internal/scraper"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testClient() *scraper.Client {
	return scraper.NewClient(testLogger())
}

func TestTwitter_Enrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status/1234567890", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"user_name": "Jack",
			"user_screen_name": "jack",
			"text": "just setting up my twttr",
			"mediaURLs": ["https://pbs.twimg.com/media/a.jpg"],
			"user_profile_image_url": "https://pbs.twimg.com/profile/jack.jpg"
		}`)
	}))
	defer srv.Close()

	tw := NewTwitter(testClient())
	tw.baseURL = srv.URL

	md, err := tw.Enrich(context.Background(), "https://x.com/jack/status/1234567890?s=20")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "Jack (@jack)", md.Title)
	assert.Equal(t, "just setting up my twttr", md.Description)
	assert.Equal(t, "https://pbs.twimg.com/media/a.jpg", md.Image)
	assert.Equal(t, "https://pbs.twimg.com/profile/jack.jpg", md.AuthorAvatar)
	assert.Equal(t, "@jack", md.Author)
	assert.Equal(t, SourceTwitter, md.Source)
}

func TestTwitter_Enrich_AvatarWhenNoMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user_name":"A","user_screen_name":"a","text":"hi","mediaURLs":[],"user_profile_image_url":"https://img/a.png"}`)
	}))
	defer srv.Close()

	tw := NewTwitter(testClient())
	tw.baseURL = srv.URL

	md, err := tw.Enrich(context.Background(), "https://twitter.com/a/status/1")
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", md.Image)
}

func TestTwitter_Enrich_Failures(t *testing.T) {
	tw := NewTwitter(testClient())

	_, err := tw.Enrich(context.Background(), "https://x.com/jack")
	assert.ErrorIs(t, err, errNoStatusID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	tw.baseURL = srv.URL

	_, err = tw.Enrich(context.Background(), "https://x.com/jack/status/1")
	assert.Error(t, err)
}

const imginnPage = `<html><head>
<title>Alice (@alice) on Instagram</title>
<meta name="description" content="meta caption">
</head><body>
<div class="user"><a href="/alice"><img src="//cdn.imginn.com/avatar.jpg"></a><span class="username"> alice </span></div>
<div class="description">Sunset &amp; sea<br>day two</div>
<div class="media"><a href="//cdn.imginn.com/full.jpg"><img src="//cdn.imginn.com/thumb.jpg"></a></div>
</body></html>`

func TestInstagram_Enrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/p/Cabc_123/", r.URL.Path)
		assert.Equal(t, scraper.DesktopUserAgent, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, imginnPage)
	}))
	defer srv.Close()

	ig := NewInstagram(testClient())
	ig.baseURL = srv.URL

	md, err := ig.Enrich(context.Background(), "https://www.instagram.com/reel/Cabc_123/?igsh=xyz")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "alice on Instagram", md.Title)
	assert.Equal(t, "Sunset & sea\nday two", md.Description)
	assert.Equal(t, "https://cdn.imginn.com/full.jpg", md.Image)
	assert.Equal(t, "https://cdn.imginn.com/avatar.jpg", md.AuthorAvatar)
	assert.False(t, md.IsVideo)
	assert.Equal(t, SourceInstagram, md.Source)
}

func TestInstagram_ParsePost_VideoAndFallbacks(t *testing.T) {
	ig := NewInstagram(testClient())

	post, err := ig.parsePost([]byte(`<html><head><title>Bob Builder (@bob) on Instagram</title>
		<meta name="description" content="from meta"></head>
		<body><div class="media"><video poster="p.jpg" src="//cdn.example.com/v.mp4"></video></div></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, "Bob Builder", post.Author)
	assert.Equal(t, "from meta", post.Caption)
	assert.Equal(t, "https://cdn.example.com/v.mp4", post.MediaURL)
	assert.True(t, post.IsVideo)
}

func TestInstagram_ParsePost_PlainImage(t *testing.T) {
	ig := NewInstagram(testClient())

	post, err := ig.parsePost([]byte(`<div class="media"><img src="https://cdn.example.com/i.jpg"></div>`))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/i.jpg", post.MediaURL)
	assert.Empty(t, post.Author)
}

func TestInstagram_Enrich_Failures(t *testing.T) {
	ig := NewInstagram(testClient())

	_, err := ig.Enrich(context.Background(), "https://www.instagram.com/alice/")
	assert.ErrorIs(t, err, errNoShortcode)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	ig.baseURL = srv.URL

	_, err = ig.Enrich(context.Background(), "https://www.instagram.com/p/abc/")
	assert.Error(t, err)
}

const redditJSON = `[{"kind":"Listing","data":{"children":[{"kind":"t3","data":{
	"title":"Test post","selftext":"","subreddit":"test","author":"spez",
	"thumbnail":"self","url_overridden_by_dest":""}}]}},{"kind":"Listing","data":{"children":[]}}]`

func TestReddit_Enrich(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		_, _ = io.WriteString(w, redditJSON)
	}))
	defer srv.Close()

	rd := NewReddit(testClient(), testLogger())
	md, err := rd.Enrich(context.Background(), srv.URL+"/r/test/comments/abc123/title/?utm_source=share")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, []string{"/r/test/comments/abc123/title/.json"}, paths)
	assert.Equal(t, "Test post", md.Title)
	assert.Equal(t, "Shared from r/test", md.Description)
	assert.Equal(t, "r/test", md.Subreddit)
	assert.Equal(t, "u/spez", md.Author)
	assert.Empty(t, md.Image, "placeholder thumbnails are not images")
	assert.Equal(t, SourceReddit, md.Source)
}

func TestReddit_Enrich_Shortlink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/r/golang/s/AbCd", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/r/golang/comments/xyz/go_is_great/?share_id=9", http.StatusFound)
	})
	mux.HandleFunc("/r/golang/comments/xyz/go_is_great/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	})
	mux.HandleFunc("/r/golang/comments/xyz/go_is_great/.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"data":{"children":[{"data":{"title":"Go is great","selftext":"body text",
			"subreddit":"golang","author":"gopher","thumbnail":"https://thumb/x.jpg","url_overridden_by_dest":"https://i.redd.it/full.png"}}]}}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	md, err := NewReddit(testClient(), testLogger()).Enrich(context.Background(), srv.URL+"/r/golang/s/AbCd")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "Go is great", md.Title)
	assert.Equal(t, "body text", md.Description)
	assert.Equal(t, "https://i.redd.it/full.png", md.Image)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestReddit_Enrich_UnresolvedShortlinkIsQueriedAsIs(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, redditJSON)
	}))
	defer srv.Close()

	client := scraper.NewClient(testLogger(), scraper.WithHTTPClient(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodHead {
				return nil, errors.New("connection reset")
			}
			return http.DefaultTransport.RoundTrip(req)
		}),
	}))

	md, err := NewReddit(client, testLogger()).Enrich(context.Background(), srv.URL+"/r/test/s/AbCd?share_id=1")
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, []string{"/r/test/s/AbCd/.json"}, paths)
	assert.Equal(t, "Test post", md.Title)
}

func TestReddit_Enrich_HTMLIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "  <!doctype html><html>blocked</html>")
	}))
	defer srv.Close()

	_, err := NewReddit(testClient(), testLogger()).Enrich(context.Background(), srv.URL+"/r/test/comments/1/x")
	assert.ErrorIs(t, err, errHTMLResponse)
}

func TestReddit_Enrich_ThumbnailFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/a/comments/1/x/.json", r.URL.Path)
		_, _ = io.WriteString(w, `[{"data":{"children":[{"data":{"title":"T","subreddit":"a","author":"b","thumbnail":"https://thumb/x.jpg"}}]}}]`)
	}))
	defer srv.Close()

	md, err := NewReddit(testClient(), testLogger()).Enrich(context.Background(), srv.URL+"/r/a/comments/1/x")
	require.NoError(t, err)
	assert.Equal(t, "https://thumb/x.jpg", md.Image)
}

func TestPlatforms(t *testing.T) {
	assert.Equal(t, domain.PlatformTwitter, NewTwitter(testClient()).Platform())
	assert.Equal(t, domain.PlatformInstagram, NewInstagram(testClient()).Platform())
	assert.Equal(t, domain.PlatformReddit, NewReddit(testClient(), testLogger()).Platform())
}
