package pipedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/playtube/server/internal/metadata"
)

// Video fetches a video's metadata and stream variants.
func (c *Client) Video(ctx context.Context, videoID string) (metadata.Video, error) {
	body, err := c.get(ctx, "/streams/"+videoID, nil)
	if err != nil {
		return metadata.Video{}, fmt.Errorf("failed to fetch video: %w", err)
	}

	video, err := metadata.ParseVideo(videoID, body)
	if err != nil {
		return metadata.Video{}, fmt.Errorf("failed to parse video: %w", err)
	}

	return video, nil
}

func (c *Client) Channel(ctx context.Context, channelID string) (metadata.Channel, error) {
	body, err := c.get(ctx, "/channel/"+channelID, nil)
	if err != nil {
		return metadata.Channel{}, fmt.Errorf("failed to fetch channel: %w", err)
	}

	channel, err := metadata.ParseChannel(body)
	if err != nil {
		return metadata.Channel{}, fmt.Errorf("failed to parse channel: %w", err)
	}

	return channel, nil
}

func (c *Client) ChannelPlaylist(ctx context.Context, playlistID string) (metadata.ChannelPlaylist, error) {
	body, err := c.get(ctx, "/playlists/"+playlistID, nil)
	if err != nil {
		return metadata.ChannelPlaylist{}, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	playlist, err := metadata.ParseChannelPlaylist(playlistID, body)
	if err != nil {
		return metadata.ChannelPlaylist{}, fmt.Errorf("failed to parse playlist: %w", err)
	}

	return playlist, nil
}

func (c *Client) Trending(ctx context.Context, region string) ([]metadata.ContentItem, error) {
	q := url.Values{}
	q.Set("region", region)

	body, err := c.get(ctx, "/trending", q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending: %w", err)
	}

	items, err := metadata.ParseItemList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trending: %w", err)
	}

	return items, nil
}

// Search runs a query, or fetches the next page when nextPage is non-empty.
func (c *Client) Search(ctx context.Context, query, filter, nextPage string) (metadata.SearchPage, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("filter", filter)

	path := "/search"
	if nextPage != "" {
		path = "/nextpage/search"
		q.Set("nextpage", nextPage)
	}

	body, err := c.get(ctx, path, q)
	if err != nil {
		return metadata.SearchPage{}, fmt.Errorf("failed to fetch search results: %w", err)
	}

	page, err := metadata.ParseSearchPage(body)
	if err != nil {
		return metadata.SearchPage{}, fmt.Errorf("failed to parse search results: %w", err)
	}

	return page, nil
}

func (c *Client) Suggestions(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)

	body, err := c.get(ctx, "/suggestions", q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	var suggestions []string
	if err := json.Unmarshal(body, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}

	return suggestions, nil
}

// Feed returns the subscriptions feed of the logged-in account.
func (c *Client) Feed(ctx context.Context) ([]metadata.ContentItem, error) {
	body, err := c.get(ctx, "/subscriptions/feed", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	items, err := metadata.ParseItemList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return items, nil
}

func (c *Client) Comments(ctx context.Context, videoID, nextPage string) (metadata.CommentsPage, error) {
	path := "/comments/" + videoID
	q := url.Values{}
	if nextPage != "" {
		path = "/nextpage/comments/" + videoID
		q.Set("nextpage", nextPage)
	}

	body, err := c.get(ctx, path, q)
	if err != nil {
		return metadata.CommentsPage{}, fmt.Errorf("failed to fetch comments: %w", err)
	}

	page, err := metadata.ParseComments(body)
	if err != nil {
		return metadata.CommentsPage{}, fmt.Errorf("failed to parse comments: %w", err)
	}

	return page, nil
}
