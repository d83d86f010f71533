package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playtube/server/internal/metadata"
	"github.com/playtube/server/internal/pipedapi"
	watchredis "github.com/playtube/server/internal/repository/watch/redis"
	"github.com/playtube/server/internal/session"
	"github.com/playtube/server/internal/sponsorblock"
)

type fakeAPI struct {
	videos map[string]metadata.Video
}

func (f *fakeAPI) Video(ctx context.Context, videoID string) (metadata.Video, error) {
	v, ok := f.videos[videoID]
	if !ok {
		return metadata.Video{}, metadata.ErrMalformedMetadata
	}
	return v, nil
}

func (f *fakeAPI) Channel(ctx context.Context, channelID string) (metadata.Channel, error) {
	return metadata.Channel{ID: channelID, Name: "test channel"}, nil
}

func (f *fakeAPI) ChannelPlaylist(ctx context.Context, playlistID string) (metadata.ChannelPlaylist, error) {
	return metadata.ChannelPlaylist{ID: playlistID}, nil
}

func (f *fakeAPI) Search(ctx context.Context, query, filter, nextPage string) (metadata.SearchPage, error) {
	return metadata.SearchPage{}, nil
}

func (f *fakeAPI) Trending(ctx context.Context, region string) ([]metadata.ContentItem, error) {
	return nil, nil
}

func (f *fakeAPI) Suggestions(ctx context.Context, query string) ([]string, error) {
	return []string{query + " live"}, nil
}

func (f *fakeAPI) Comments(ctx context.Context, videoID, nextPage string) (metadata.CommentsPage, error) {
	return metadata.CommentsPage{}, nil
}

type fakeAccount struct {
	subscriptions map[string]bool
	playlists     map[string][]string
	loggedIn      bool
}

func newFakeAccount() *fakeAccount {
	return &fakeAccount{
		subscriptions: make(map[string]bool),
		playlists:     make(map[string][]string),
	}
}

func (f *fakeAccount) Login(ctx context.Context, username, password string) error {
	f.loggedIn = true
	return nil
}

func (f *fakeAccount) Feed(ctx context.Context) ([]metadata.ContentItem, error) {
	return nil, nil
}

func (f *fakeAccount) Subscriptions(ctx context.Context) ([]metadata.ContentItem, error) {
	items := make([]metadata.ContentItem, 0, len(f.subscriptions))
	for id := range f.subscriptions {
		items = append(items, metadata.ContentItem{
			Kind:    metadata.ItemKindChannel,
			Channel: &metadata.Channel{ID: id},
		})
	}
	return items, nil
}

func (f *fakeAccount) Subscribe(ctx context.Context, channelID string) error {
	f.subscriptions[channelID] = true
	return nil
}

func (f *fakeAccount) Unsubscribe(ctx context.Context, channelID string) error {
	delete(f.subscriptions, channelID)
	return nil
}

func (f *fakeAccount) UserPlaylists(ctx context.Context) ([]metadata.Playlist, error) {
	playlists := make([]metadata.Playlist, 0, len(f.playlists))
	for id := range f.playlists {
		playlists = append(playlists, metadata.Playlist{ID: id})
	}
	return playlists, nil
}

func (f *fakeAccount) CreatePlaylist(ctx context.Context, name string) (string, error) {
	id := "pl-" + name
	f.playlists[id] = nil
	return id, nil
}

func (f *fakeAccount) DeletePlaylist(ctx context.Context, playlistID string) error {
	delete(f.playlists, playlistID)
	return nil
}

func (f *fakeAccount) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	f.playlists[playlistID] = append(f.playlists[playlistID], videoID)
	return nil
}

func (f *fakeAccount) RemoveFromPlaylist(ctx context.Context, playlistID string, index int) error {
	videos := f.playlists[playlistID]
	if index >= len(videos) {
		return pipedapi.ErrRequestFailed
	}
	f.playlists[playlistID] = append(videos[:index], videos[index+1:]...)
	return nil
}

type noSegments struct{}

func (noSegments) Segments(ctx context.Context, videoID string) ([]sponsorblock.Segment, error) {
	return nil, nil
}

func testVideo(id string) metadata.Video {
	return metadata.Video{
		ID:     id,
		Title:  "test video " + id,
		Author: "test author",
		Length: 120,
		Streams: []metadata.Stream{
			{Kind: metadata.StreamKindHLS, URL: "https://cdn.test/" + id + "/master.m3u8", Resolution: "720p"},
		},
	}
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestController(t *testing.T) *controller {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	store := watchredis.NewRepo(rc, 10*time.Minute)
	engine := NewRemoteEngine()
	settings := NewSettings(true, 0)
	sess := session.NewController(engine, noSegments{}, store, settings, session.Config{
		LoadTimeout: 5 * time.Second,
	})
	t.Cleanup(func() { sess.Close(context.Background()) })

	api := &fakeAPI{videos: map[string]metadata.Video{
		"dQw4w9WgXcQ": testVideo("dQw4w9WgXcQ"),
		"jNQXAC9IVRw": testVideo("jNQXAC9IVRw"),
	}}

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewController(sess, api, newFakeAccount(), engine, settings, logger)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func dialSession(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/session"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

// awaitMessage reads until a message of the wanted type arrives, skipping
// unrelated events.
func awaitMessage(t *testing.T, conn *websocket.Conn, wantType string) wsMessage {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type == wantType {
			return msg
		}
	}
	t.Fatalf("message %q never arrived", wantType)

	return wsMessage{}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    msgType,
		"payload": payload,
	}))
}

func TestSessionStartedSnapshot(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)

	msg := readMessage(t, conn)
	require.Equal(t, "session_started", msg.Type)

	var payload struct {
		SessionID string          `json:"session_id"`
		Snapshot  sessionSnapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	assert.Len(t, payload.SessionID, 8)
	assert.Equal(t, session.StateIdle, payload.Snapshot.State)
	assert.Empty(t, payload.Snapshot.Queue)
	assert.True(t, payload.Snapshot.Autoplay)
}

func TestPlayFlow(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)
	awaitMessage(t, conn, "session_started")

	send(t, conn, "play", map[string]any{"video_id": "dQw4w9WgXcQ"})

	cmd := awaitEngineCommand(t, conn, "load_asset")
	assert.Equal(t, "https://cdn.test/dQw4w9WgXcQ/master.m3u8", cmd.URL)
	require.NotEmpty(t, cmd.RequestID)

	send(t, conn, "ready", map[string]any{"request_id": cmd.RequestID})

	awaitEngineCommand(t, conn, "play")
	awaitState(t, conn, session.StatePlaying)
}

func TestPlayUnknownVideoReportsError(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)
	awaitMessage(t, conn, "session_started")

	send(t, conn, "play", map[string]any{"video_id": "aaaaaaaaaaa"})

	raw := readRaw(t, conn)
	assert.Contains(t, string(raw), "failed to fetch video")
}

func TestPlayValidation(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)
	awaitMessage(t, conn, "session_started")

	send(t, conn, "play", map[string]any{"video_id": "short"})

	raw := readRaw(t, conn)
	assert.Contains(t, string(raw), "validation error")
}

func TestEnqueueAndEndedAdvances(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)
	awaitMessage(t, conn, "session_started")

	send(t, conn, "play", map[string]any{"video_id": "dQw4w9WgXcQ"})
	cmd := awaitEngineCommand(t, conn, "load_asset")
	send(t, conn, "ready", map[string]any{"request_id": cmd.RequestID})
	awaitState(t, conn, session.StatePlaying)

	send(t, conn, "enqueue", map[string]any{"video_id": "jNQXAC9IVRw"})
	awaitMessage(t, conn, "queue_changed")

	send(t, conn, "ended", nil)

	cmd = awaitEngineCommand(t, conn, "load_asset")
	assert.Equal(t, "https://cdn.test/jNQXAC9IVRw/master.m3u8", cmd.URL)
	send(t, conn, "ready", map[string]any{"request_id": cmd.RequestID})
	awaitState(t, conn, session.StatePlaying)

	send(t, conn, "ended", nil)
	awaitMessage(t, conn, "queue_exhausted")
}

func TestReorderQueue(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	conn := dialSession(t, srv)
	awaitMessage(t, conn, "session_started")

	send(t, conn, "enqueue", map[string]any{"video_id": "dQw4w9WgXcQ"})
	awaitMessage(t, conn, "queue_changed")
	send(t, conn, "enqueue", map[string]any{"video_id": "jNQXAC9IVRw"})
	msg := awaitMessage(t, conn, "queue_changed")

	var payload struct {
		Queue []queueEntry `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Len(t, payload.Queue, 2)

	send(t, conn, "reorder_queue", map[string]any{
		"item_id": payload.Queue[1].ItemID,
		"index":   0,
	})

	msg = awaitMessage(t, conn, "queue_changed")
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Len(t, payload.Queue, 2)
	assert.Equal(t, "jNQXAC9IVRw", payload.Queue[0].VideoID)
	assert.Equal(t, "dQw4w9WgXcQ", payload.Queue[1].VideoID)
}

func TestRestVideo(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/video/dQw4w9WgXcQ")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data metadata.Video `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "dQw4w9WgXcQ", body.Data.ID)
	assert.Equal(t, "test author", body.Data.Author)
}

func TestRestSearchRequiresQuery(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/search")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRestSessionSnapshot(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/session")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data sessionSnapshot `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, session.StateIdle, body.Data.State)
}

func TestRestPlaylistLifecycle(t *testing.T) {
	c := newTestController(t)
	srv := httptest.NewServer(c.Mux())
	defer srv.Close()

	client := srv.Client()

	resp, err := client.Post(srv.URL+"/api/v1/user/playlists", "application/json",
		strings.NewReader(`{"name":"favorites"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Data createPlaylistResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.Data.PlaylistID)

	resp, err = client.Post(srv.URL+"/api/v1/user/playlists/"+created.Data.PlaylistID+"/videos",
		"application/json", strings.NewReader(`{"video_id":"dQw4w9WgXcQ"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Post(srv.URL+"/api/v1/user/playlists/"+created.Data.PlaylistID+"/videos",
		"application/json", strings.NewReader(`{"video_id":"short"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/user/playlists/"+created.Data.PlaylistID+"/videos/0", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func awaitEngineCommand(t *testing.T, conn *websocket.Conn, command string) engineCommand {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type != "engine_command" {
			continue
		}

		var cmd engineCommand
		require.NoError(t, json.Unmarshal(msg.Payload, &cmd))
		if cmd.Command == command {
			return cmd
		}
	}
	t.Fatalf("engine command %q never arrived", command)

	return engineCommand{}
}

func awaitState(t *testing.T, conn *websocket.Conn, want session.State) {
	t.Helper()

	for i := 0; i < 20; i++ {
		msg := awaitMessage(t, conn, string(session.EventStateChanged))

		var payload struct {
			State session.State `json:"state"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		if payload.State == want {
			return
		}
	}
	t.Fatalf("state %q never reached", want)
}

func readRaw(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	return raw
}
