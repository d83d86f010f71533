package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) Mux() http.Handler {
	r := chi.NewRouter()

	r.HandleFunc("/ws/session", c.connectSession)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/video/{video-id}", c.getVideo)
		r.Get("/channel/{channel-id}", c.getChannel)
		r.Get("/playlist/{playlist-id}", c.getPlaylist)
		r.Get("/search", c.getSearch)
		r.Get("/trending", c.getTrending)
		r.Get("/suggestions", c.getSuggestions)
		r.Get("/comments/{video-id}", c.getComments)
		r.Get("/session", c.getSession)

		r.Post("/login", c.postLogin)
		r.Get("/feed", c.getFeed)
		r.Get("/subscriptions", c.getSubscriptions)
		r.Post("/subscriptions/{channel-id}", c.postSubscribe)
		r.Delete("/subscriptions/{channel-id}", c.deleteSubscription)
		r.Get("/user/playlists", c.getUserPlaylists)
		r.Post("/user/playlists", c.postCreatePlaylist)
		r.Delete("/user/playlists/{playlist-id}", c.deleteUserPlaylist)
		r.Post("/user/playlists/{playlist-id}/videos", c.postAddToPlaylist)
		r.Delete("/user/playlists/{playlist-id}/videos/{index}", c.deleteFromPlaylist)
	})

	r.Get("/healthz", c.getHealthz)

	return r
}
