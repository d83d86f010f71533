package metadata

import (
	"encoding/json"
	"fmt"
)

type channelPayload struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	AvatarURL   string        `json:"avatarUrl"`
	Subscribers int64         `json:"subscriberCount"`
	NextPage    string        `json:"nextpage"`
	Related     []itemPayload `json:"relatedStreams"`
}

// ParseChannel parses a channel lookup payload, including its recent videos.
func ParseChannel(data []byte) (Channel, error) {
	var p channelPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Channel{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	if p.ID == "" {
		return Channel{}, fmt.Errorf("%w: missing channel id", ErrMalformedMetadata)
	}

	c := Channel{
		ID:           p.ID,
		Name:         p.Name,
		ThumbnailURL: p.AvatarURL,
		Subscribers:  p.Subscribers,
		NextPage:     p.NextPage,
	}
	for i := range p.Related {
		video, err := parseVideoItem(&p.Related[i])
		if err != nil {
			continue
		}
		c.Videos = append(c.Videos, video)
	}

	return c, nil
}

type channelPlaylistPayload struct {
	Name         string        `json:"name"`
	ThumbnailURL string        `json:"thumbnailUrl"`
	Uploader     string        `json:"uploader"`
	UploaderURL  string        `json:"uploaderUrl"`
	UploaderIcon string        `json:"uploaderAvatar"`
	Videos       int           `json:"videos"`
	NextPage     string        `json:"nextpage"`
	Related      []itemPayload `json:"relatedStreams"`
}

// ParseChannelPlaylist parses a playlist lookup payload. playlistID is the
// id the payload was fetched for. TotalCount is the backend's count hint,
// which can exceed the number of videos loaded so far.
func ParseChannelPlaylist(playlistID string, data []byte) (ChannelPlaylist, error) {
	var p channelPlaylistPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ChannelPlaylist{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	if playlistID == "" {
		return ChannelPlaylist{}, fmt.Errorf("%w: missing playlist id", ErrMalformedMetadata)
	}

	pl := ChannelPlaylist{
		ID:    playlistID,
		Title: p.Name,
		Channel: Channel{
			ID:           channelIDFromURL(p.UploaderURL),
			Name:         p.Uploader,
			ThumbnailURL: p.UploaderIcon,
		},
		TotalCount: p.Videos,
		NextPage:   p.NextPage,
	}
	for i := range p.Related {
		video, err := parseVideoItem(&p.Related[i])
		if err != nil {
			continue
		}
		pl.Videos = append(pl.Videos, video)
	}
	if pl.TotalCount < len(pl.Videos) {
		pl.TotalCount = len(pl.Videos)
	}

	return pl, nil
}
