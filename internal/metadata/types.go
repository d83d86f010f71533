package metadata

// StreamKind tags the shape of a playable variant.
type StreamKind string

const (
	StreamKindHLS      StreamKind = "hls"
	StreamKindAdaptive StreamKind = "adaptive"
	StreamKindStream   StreamKind = "stream"
)

// Stream is a single playable variant of a video. Exactly one of URL or
// the AudioURL/VideoURL pair is populated: HLS manifests and muxed files
// carry URL, adaptive variants carry one asset per track.
type Stream struct {
	Kind        StreamKind `json:"kind"`
	URL         string     `json:"url,omitempty"`
	AudioURL    string     `json:"audio_url,omitempty"`
	VideoURL    string     `json:"video_url,omitempty"`
	Resolution  string     `json:"resolution,omitempty"`
	VideoFormat string     `json:"video_format,omitempty"`
}

type Thumbnail struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
}

type Channel struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Subscribers  int64   `json:"subscribers,omitempty"`
	Videos       []Video `json:"videos,omitempty"`
	NextPage     string  `json:"next_page,omitempty"`
}

// Video is a read-only snapshot built from one API response. A refetch
// replaces the whole record, nothing mutates it in place.
type Video struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Author      string      `json:"author"`
	Channel     *Channel    `json:"channel,omitempty"`
	Length      int         `json:"length"`
	Published   string      `json:"published"`
	Views       int64       `json:"views"`
	Description string      `json:"description,omitempty"`
	Thumbnails  []Thumbnail `json:"thumbnails,omitempty"`
	Live        bool        `json:"live"`
	Likes       *int64      `json:"likes,omitempty"`
	Dislikes    *int64      `json:"dislikes,omitempty"`
	Streams     []Stream    `json:"streams,omitempty"`
	Related     []Video     `json:"related,omitempty"`
}

// ThumbnailURL returns the best-quality thumbnail, or "" when none is known.
func (v Video) ThumbnailURL() string {
	if len(v.Thumbnails) == 0 {
		return ""
	}
	return v.Thumbnails[len(v.Thumbnails)-1].URL
}

type PlaylistVisibility string

const (
	PlaylistPublic   PlaylistVisibility = "public"
	PlaylistUnlisted PlaylistVisibility = "unlisted"
	PlaylistPrivate  PlaylistVisibility = "private"
)

// Playlist is a user-owned playlist.
type Playlist struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Visibility PlaylistVisibility `json:"visibility,omitempty"`
	Videos     []Video            `json:"videos"`
	TotalCount int                `json:"total_count"`
}

// ChannelPlaylist is a playlist owned by a channel.
type ChannelPlaylist struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    Channel `json:"channel"`
	Videos     []Video `json:"videos"`
	TotalCount int     `json:"total_count"`
	NextPage   string  `json:"next_page,omitempty"`
}

type Comment struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Time        string `json:"time,omitempty"`
	Pinned      bool   `json:"pinned"`
	Hearted     bool   `json:"hearted"`
	Likes       int64  `json:"likes"`
	Text        string `json:"text"`
	RepliesPage string `json:"replies_page,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
}

type CommentsPage struct {
	Comments []Comment `json:"comments"`
	NextPage string    `json:"next_page,omitempty"`
	Disabled bool      `json:"disabled"`
}

// ItemKind classifies a mixed search result.
type ItemKind string

const (
	ItemKindVideo    ItemKind = "video"
	ItemKindChannel  ItemKind = "channel"
	ItemKindPlaylist ItemKind = "playlist"
)

// ContentItem is one entry of a mixed result list. Exactly the field
// matching Kind is populated.
type ContentItem struct {
	Kind     ItemKind         `json:"kind"`
	Video    *Video           `json:"video,omitempty"`
	Channel  *Channel         `json:"channel,omitempty"`
	Playlist *ChannelPlaylist `json:"playlist,omitempty"`
}

type SearchPage struct {
	Items    []ContentItem `json:"items"`
	NextPage string        `json:"next_page,omitempty"`
	IsLast   bool          `json:"is_last"`
}
