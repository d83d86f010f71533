package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

type searchPayload struct {
	Items    []itemPayload `json:"items"`
	NextPage string        `json:"nextpage"`
}

// ParseSearchPage parses one page of mixed search (or feed) results. Items
// that cannot be resolved to an id are skipped; the page itself fails only
// when the envelope is unreadable.
func ParseSearchPage(data []byte) (SearchPage, error) {
	var p searchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return SearchPage{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	page := SearchPage{
		NextPage: p.NextPage,
		IsLast:   p.NextPage == "",
	}
	for i := range p.Items {
		item, err := parseContentItem(&p.Items[i])
		if err != nil {
			continue
		}
		page.Items = append(page.Items, item)
	}

	return page, nil
}

// ParseItemList parses a bare array of mixed items, as returned by the
// trending and feed endpoints.
func ParseItemList(data []byte) ([]ContentItem, error) {
	var items []itemPayload
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	parsed := make([]ContentItem, 0, len(items))
	for i := range items {
		item, err := parseContentItem(&items[i])
		if err != nil {
			continue
		}
		parsed = append(parsed, item)
	}

	return parsed, nil
}

// parseContentItem classifies a mixed result by its url: a "/playlist"
// substring marks a playlist, "/channel" a channel, anything else (including
// a missing url) is treated as a video.
func parseContentItem(p *itemPayload) (ContentItem, error) {
	switch {
	case strings.Contains(p.URL, "/playlist"):
		playlist, err := parsePlaylistItem(p)
		if err != nil {
			return ContentItem{}, err
		}
		return ContentItem{Kind: ItemKindPlaylist, Playlist: &playlist}, nil
	case strings.Contains(p.URL, "/channel"):
		channel, err := parseChannelItem(p)
		if err != nil {
			return ContentItem{}, err
		}
		return ContentItem{Kind: ItemKindChannel, Channel: &channel}, nil
	default:
		video, err := parseVideoItem(p)
		if err != nil {
			return ContentItem{}, err
		}
		return ContentItem{Kind: ItemKindVideo, Video: &video}, nil
	}
}

func parseChannelItem(p *itemPayload) (Channel, error) {
	id := channelIDFromURL(p.URL)
	if id == "" {
		return Channel{}, fmt.Errorf("%w: missing channel id", ErrMalformedMetadata)
	}

	name := p.Name
	if name == "" {
		name = p.Title
	}

	return Channel{
		ID:           id,
		Name:         name,
		ThumbnailURL: p.Thumbnail,
		Subscribers:  p.Subscribers,
	}, nil
}

func parsePlaylistItem(p *itemPayload) (ChannelPlaylist, error) {
	id := playlistIDFromURL(p.URL)
	if id == "" {
		return ChannelPlaylist{}, fmt.Errorf("%w: missing playlist id", ErrMalformedMetadata)
	}

	return ChannelPlaylist{
		ID:    id,
		Title: p.Name,
		Channel: Channel{
			ID:   channelIDFromURL(p.UploaderURL),
			Name: p.UploaderName,
		},
		TotalCount: p.Videos,
	}, nil
}

func playlistIDFromURL(itemURL string) string {
	if i := strings.Index(itemURL, "list="); i >= 0 {
		id := itemURL[i+len("list="):]
		if j := strings.IndexByte(id, '&'); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return ""
}
