package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playtube/server/internal/metadata"
	"github.com/playtube/server/internal/pipedapi"
	"github.com/playtube/server/pkg/rest"
)

func (c *controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, metadata.ErrMalformedMetadata):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, metadata.ErrUnresolvableID):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pipedapi.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	c.logger.DebugContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	rest.WriteJSON(w, status, rest.Envelope{"error": err.Error()})
}

func (c *controller) getVideo(w http.ResponseWriter, r *http.Request) {
	video, err := c.api.Video(r.Context(), chi.URLParam(r, "video-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": video})
}

func (c *controller) getChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := c.api.Channel(r.Context(), chi.URLParam(r, "channel-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": channel})
}

func (c *controller) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := c.api.ChannelPlaylist(r.Context(), chi.URLParam(r, "playlist-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": playlist})
}

func (c *controller) getSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "q is required"})
		return
	}

	page, err := c.api.Search(r.Context(), query, r.URL.Query().Get("filter"), r.URL.Query().Get("nextpage"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": page})
}

func (c *controller) getTrending(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = "US"
	}

	items, err := c.api.Trending(r.Context(), region)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": items})
}

func (c *controller) getSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := c.api.Suggestions(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": suggestions})
}

func (c *controller) getComments(w http.ResponseWriter, r *http.Request) {
	page, err := c.api.Comments(r.Context(), chi.URLParam(r, "video-id"), r.URL.Query().Get("nextpage"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": page})
}

func (c *controller) getSession(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.snapshot()})
}

func (c *controller) getHealthz(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"status": "ok"})
}
