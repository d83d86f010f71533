package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playtube/server/pkg/rest"
)

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *controller) postLogin(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.account.Login(r.Context(), input.Username, input.Password); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

func (c *controller) getFeed(w http.ResponseWriter, r *http.Request) {
	items, err := c.account.Feed(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": items})
}

func (c *controller) getSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := c.account.Subscriptions(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": subs})
}

func (c *controller) postSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := c.account.Subscribe(r.Context(), chi.URLParam(r, "channel-id")); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

func (c *controller) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := c.account.Unsubscribe(r.Context(), chi.URLParam(r, "channel-id")); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

func (c *controller) getUserPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := c.account.UserPlaylists(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playlists})
}

type createPlaylistInput struct {
	Name string `json:"name" validate:"required,max=128"`
}

type createPlaylistResponse struct {
	PlaylistID string `json:"playlist_id"`
}

func (c *controller) postCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var input createPlaylistInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	playlistID, err := c.account.CreatePlaylist(r.Context(), input.Name)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": createPlaylistResponse{
		PlaylistID: playlistID,
	}})
}

func (c *controller) deleteUserPlaylist(w http.ResponseWriter, r *http.Request) {
	if err := c.account.DeletePlaylist(r.Context(), chi.URLParam(r, "playlist-id")); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

type addToPlaylistInput struct {
	VideoID string `json:"video_id" validate:"required,len=11"`
}

func (c *controller) postAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var input addToPlaylistInput
	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.account.AddToPlaylist(r.Context(), chi.URLParam(r, "playlist-id"), input.VideoID); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}

func (c *controller) deleteFromPlaylist(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "index must be a non-negative integer"})
		return
	}

	if err := c.account.RemoveFromPlaylist(r.Context(), chi.URLParam(r, "playlist-id"), index); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}
