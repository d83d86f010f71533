// Package sponsorblock fetches auto-skip segments for a video.
package sponsorblock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const defaultBaseURL = "https://sponsor.ajay.app"

// Segment is a time range within a video to skip over.
type Segment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Category string  `json:"category"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type segmentPayload struct {
	Category string     `json:"category"`
	Segment  [2]float64 `json:"segment"`
}

// Segments returns the skip segments for a video, ordered by start time.
// Categories filters which segment kinds are requested. A video without
// any known segments yields an empty list, not an error.
func (c *Client) Segments(ctx context.Context, videoID string, categories []string) ([]Segment, error) {
	cats, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	q := url.Values{}
	q.Set("videoID", videoID)
	q.Set("categories", string(cats))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/skipSegments?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload []segmentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode segments: %w", err)
	}

	segments := make([]Segment, 0, len(payload))
	for _, p := range payload {
		segments = append(segments, Segment{
			Start:    p.Segment[0],
			End:      p.Segment[1],
			Category: p.Category,
		})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })

	return segments, nil
}
