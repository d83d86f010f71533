package metadata

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// liveDurationSentinel is what the backend reports as duration for
// livestreams with unknown length.
const liveDurationSentinel = -1

type videoPayload struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Uploader     string          `json:"uploader"`
	UploaderURL  string          `json:"uploaderUrl"`
	UploaderIcon string          `json:"uploaderAvatar"`
	Subscribers  int64           `json:"uploaderSubscriberCount"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Duration     int             `json:"duration"`
	Views        int64           `json:"views"`
	Likes        *int64          `json:"likes"`
	Dislikes     *int64          `json:"dislikes"`
	Uploaded     int64           `json:"uploaded"`
	UploadDate   string          `json:"uploadDate"`
	Livestream   bool            `json:"livestream"`
	HLS          string          `json:"hls"`
	AudioStreams []streamPayload `json:"audioStreams"`
	VideoStreams []streamPayload `json:"videoStreams"`
	Related      []itemPayload   `json:"relatedStreams"`
}

type streamPayload struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	Quality   string `json:"quality"`
	MimeType  string `json:"mimeType"`
	Bitrate   int    `json:"bitrate"`
	VideoOnly bool   `json:"videoOnly"`
}

// itemPayload is the loose shape shared by related-stream and search-result
// entries. Which fields are populated depends on the item kind.
type itemPayload struct {
	URL          string `json:"url"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Thumbnail    string `json:"thumbnail"`
	UploaderName string `json:"uploaderName"`
	UploaderURL  string `json:"uploaderUrl"`
	UploadedDate string `json:"uploadedDate"`
	Uploaded     int64  `json:"uploaded"`
	Duration     int    `json:"duration"`
	Views        int64  `json:"views"`
	Subscribers  int64  `json:"subscribers"`
	Videos       int    `json:"videos"`
	Description  string `json:"description"`
	Verified     bool   `json:"verified"`
}

// ParseVideo builds a Video snapshot from a raw streams payload. videoID is
// the id the payload was fetched for; the payload itself does not repeat it.
func ParseVideo(videoID string, data []byte) (Video, error) {
	var p videoPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	if videoID == "" {
		return Video{}, ErrUnresolvableID
	}
	if p.Title == "" {
		return Video{}, fmt.Errorf("%w: missing title", ErrMalformedMetadata)
	}

	v := Video{
		ID:          videoID,
		Title:       p.Title,
		Author:      p.Uploader,
		Length:      p.Duration,
		Published:   publishedText(p.Uploaded, p.UploadDate),
		Views:       p.Views,
		Description: SanitizeDescription(p.Description),
		Thumbnails:  ThumbnailVariants(p.ThumbnailURL),
		Live:        p.Livestream || p.Duration == liveDurationSentinel,
		Likes:       p.Likes,
		Dislikes:    p.Dislikes,
		Streams:     extractStreams(&p),
	}
	if p.Uploader != "" || p.UploaderURL != "" {
		v.Channel = &Channel{
			ID:           channelIDFromURL(p.UploaderURL),
			Name:         p.Uploader,
			ThumbnailURL: p.UploaderIcon,
			Subscribers:  p.Subscribers,
		}
	}
	for _, item := range p.Related {
		related, err := parseVideoItem(&item)
		if err != nil {
			// Per-record failures in a list are skipped, not fatal.
			continue
		}
		v.Related = append(v.Related, related)
	}

	return v, nil
}

// parseVideoItem builds a Video summary from a related-stream or
// search-result entry.
func parseVideoItem(p *itemPayload) (Video, error) {
	id, err := resolveVideoID(p.URL, p.Thumbnail)
	if err != nil {
		return Video{}, err
	}

	v := Video{
		ID:         id,
		Title:      p.Title,
		Author:     p.UploaderName,
		Length:     p.Duration,
		Published:  publishedText(p.Uploaded, p.UploadedDate),
		Views:      p.Views,
		Thumbnails: ThumbnailVariants(p.Thumbnail),
		Live:       p.Duration == liveDurationSentinel,
	}
	if p.UploaderURL != "" || p.UploaderName != "" {
		v.Channel = &Channel{
			ID:   channelIDFromURL(p.UploaderURL),
			Name: p.UploaderName,
		}
	}
	return v, nil
}

// resolveVideoID extracts a video id from the item's watch url, falling back
// to the 5th path segment of the thumbnail url.
func resolveVideoID(itemURL, thumbnailURL string) (string, error) {
	if itemURL != "" {
		if u, err := url.Parse(itemURL); err == nil {
			if id := u.Query().Get("v"); id != "" {
				return id, nil
			}
		}
	}
	if thumbnailURL != "" {
		parts := strings.Split(thumbnailURL, "/")
		if len(parts) > 4 && parts[4] != "" {
			return parts[4], nil
		}
	}
	return "", ErrUnresolvableID
}

func channelIDFromURL(uploaderURL string) string {
	return strings.TrimPrefix(uploaderURL, "/channel/")
}

// publishedText resolves the published display text: millisecond upload
// timestamp first, then the raw textual date, then empty.
func publishedText(uploadedMillis int64, uploadDate string) string {
	if uploadedMillis > 0 {
		return relativeTime(time.UnixMilli(uploadedMillis))
	}
	return uploadDate
}

func relativeTime(t time.Time) string {
	return relativeTimeSince(t, time.Now())
}

func relativeTimeSince(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/24/30), "month")
	default:
		return plural(int(d.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
