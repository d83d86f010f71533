package pipedapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streams/abc123", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "streams endpoint must not carry the token")
		w.Write([]byte(`{"title": "Test", "duration": 120, "uploader": "Someone"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.setToken("secret")

	video, err := c.Video(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", video.ID)
	assert.Equal(t, "Test", video.Title)
}

func TestSearchPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "cats", r.URL.Query().Get("q"))
			w.Write([]byte(`{"items": [{"url": "/watch?v=v1", "title": "one"}], "nextpage": "page2"}`))
		case "/nextpage/search":
			assert.Equal(t, "page2", r.URL.Query().Get("nextpage"))
			w.Write([]byte(`{"items": [{"url": "/watch?v=v2", "title": "two"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	page, err := c.Search(context.Background(), "cats", "all", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "page2", page.NextPage)
	assert.False(t, page.IsLast)

	page, err = c.Search(context.Background(), "cats", "all", page.NextPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.IsLast)
}

func TestAuthEndpointsRequireToken(t *testing.T) {
	c := NewClient("http://localhost:0")

	_, err := c.Subscriptions(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = c.Subscribe(context.Background(), "UC1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginCachesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Write([]byte(`{"token": "tkn-1"}`))
		case "/subscriptions":
			assert.Equal(t, "tkn-1", r.Header.Get("Authorization"))
			w.Write([]byte(`[{"url": "/channel/UC1", "name": "Chan"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Login(context.Background(), "user", "pass"))
	assert.Equal(t, "tkn-1", c.Token())

	subs, err := c.Subscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "UC1", subs[0].Channel.ID)
}

func TestRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Video(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestPlaylistCRUD(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		assert.Equal(t, "tkn", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/user/playlists/create":
			w.Write([]byte(`{"playlistId": "pl-1"}`))
		default:
			w.Write([]byte(`{"message": "ok"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.setToken("tkn")
	ctx := context.Background()

	id, err := c.CreatePlaylist(ctx, "favs")
	require.NoError(t, err)
	assert.Equal(t, "pl-1", id)

	require.NoError(t, c.AddToPlaylist(ctx, id, "vid1"))
	require.NoError(t, c.RemoveFromPlaylist(ctx, id, 0))
	require.NoError(t, c.DeletePlaylist(ctx, id))

	assert.Equal(t, []string{
		"/user/playlists/create",
		"/user/playlists/add",
		"/user/playlists/remove",
		"/user/playlists/delete",
	}, calls)
}
