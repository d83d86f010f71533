package pipedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/playtube/server/internal/metadata"
)

// Login exchanges credentials for a bearer token and caches it on the
// client for the endpoints that require authorization.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.post(ctx, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("%w: empty token", ErrRequestFailed)
	}

	c.setToken(resp.Token)

	return nil
}

func (c *Client) Subscriptions(ctx context.Context) ([]metadata.ContentItem, error) {
	body, err := c.get(ctx, "/subscriptions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	items, err := metadata.ParseItemList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions: %w", err)
	}

	return items, nil
}

func (c *Client) Subscribe(ctx context.Context, channelID string) error {
	if _, err := c.post(ctx, "/subscribe", map[string]string{"channelId": channelID}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

func (c *Client) Unsubscribe(ctx context.Context, channelID string) error {
	if _, err := c.post(ctx, "/unsubscribe", map[string]string{"channelId": channelID}); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

type userPlaylistPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Videos int    `json:"videos"`
}

// UserPlaylists lists the playlists of the logged-in account.
func (c *Client) UserPlaylists(ctx context.Context) ([]metadata.Playlist, error) {
	body, err := c.get(ctx, "/user/playlists", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user playlists: %w", err)
	}

	var payload []userPlaylistPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse user playlists: %w", err)
	}

	playlists := make([]metadata.Playlist, 0, len(payload))
	for _, p := range payload {
		playlists = append(playlists, metadata.Playlist{
			ID:         p.ID,
			Title:      p.Name,
			TotalCount: p.Videos,
		})
	}

	return playlists, nil
}

// CreatePlaylist creates a playlist and returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	body, err := c.post(ctx, "/user/playlists/create", map[string]string{"name": name})
	if err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}

	var resp struct {
		PlaylistID string `json:"playlistId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse create response: %w", err)
	}

	return resp.PlaylistID, nil
}

func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	if _, err := c.post(ctx, "/user/playlists/delete", map[string]string{"playlistId": playlistID}); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return nil
}

func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	if _, err := c.post(ctx, "/user/playlists/add", map[string]string{
		"playlistId": playlistID,
		"videoId":    videoID,
	}); err != nil {
		return fmt.Errorf("failed to add video to playlist: %w", err)
	}
	return nil
}

// RemoveFromPlaylist removes the video at index from a playlist.
func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistID string, index int) error {
	if _, err := c.post(ctx, "/user/playlists/remove", map[string]string{
		"playlistId": playlistID,
		"index":      strconv.Itoa(index),
	}); err != nil {
		return fmt.Errorf("failed to remove video from playlist: %w", err)
	}
	return nil
}
