package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/playtube/server/internal/metadata"
	"github.com/playtube/server/internal/session"
	"github.com/playtube/server/pkg/randstr"
	"github.com/playtube/server/pkg/validator"
	"github.com/playtube/server/pkg/wsrouter"
)

// iMetadataProvider is the backend the controller fetches records from.
type iMetadataProvider interface {
	Video(ctx context.Context, videoID string) (metadata.Video, error)
	Channel(ctx context.Context, channelID string) (metadata.Channel, error)
	ChannelPlaylist(ctx context.Context, playlistID string) (metadata.ChannelPlaylist, error)
	Search(ctx context.Context, query, filter, nextPage string) (metadata.SearchPage, error)
	Trending(ctx context.Context, region string) ([]metadata.ContentItem, error)
	Suggestions(ctx context.Context, query string) ([]string, error)
	Comments(ctx context.Context, videoID, nextPage string) (metadata.CommentsPage, error)
}

// iAccountProvider is the authenticated side of the backend: subscriptions,
// the subscription feed and user playlists.
type iAccountProvider interface {
	Login(ctx context.Context, username, password string) error
	Feed(ctx context.Context) ([]metadata.ContentItem, error)
	Subscriptions(ctx context.Context) ([]metadata.ContentItem, error)
	Subscribe(ctx context.Context, channelID string) error
	Unsubscribe(ctx context.Context, channelID string) error
	UserPlaylists(ctx context.Context) ([]metadata.Playlist, error)
	CreatePlaylist(ctx context.Context, name string) (string, error)
	DeletePlaylist(ctx context.Context, playlistID string) error
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
	RemoveFromPlaylist(ctx context.Context, playlistID string, index int) error
}

type controller struct {
	sess      *session.Controller
	api       iMetadataProvider
	account   iAccountProvider
	engine    *RemoteEngine
	settings  *Settings
	upgrader  websocket.Upgrader
	wsRouter  *wsrouter.WSRouter
	validate  *validator.Validator
	generator *randstr.Generator
	logger    *slog.Logger

	peerMu sync.Mutex
	peer   *websocket.Conn
}

func NewController(sess *session.Controller, api iMetadataProvider, account iAccountProvider, engine *RemoteEngine, settings *Settings, logger *slog.Logger) *controller {
	c := &controller{
		sess:     sess,
		api:      api,
		account:  account,
		engine:   engine,
		settings: settings,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	c.generator = randstr.New(letterBytes)

	c.wsRouter = c.newWSRouter()

	sess.Subscribe(c.pushEvent)

	return c
}
