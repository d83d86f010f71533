package metadata

import (
	"encoding/json"
	"fmt"
)

type commentsPayload struct {
	Comments []commentPayload `json:"comments"`
	NextPage string           `json:"nextpage"`
	Disabled bool             `json:"disabled"`
}

type commentPayload struct {
	ID           string `json:"commentId"`
	Author       string `json:"author"`
	Thumbnail    string `json:"thumbnail"`
	Text         string `json:"commentText"`
	Time         string `json:"commentedTime"`
	Pinned       bool   `json:"pinned"`
	Hearted      bool   `json:"hearted"`
	Likes        int64  `json:"likeCount"`
	RepliesPage  string `json:"repliesPage"`
	CommentorURL string `json:"commentorUrl"`
}

// ParseComments parses one page of comments. Entries without an id are
// skipped; a disabled comment section yields an empty page with Disabled
// set.
func ParseComments(data []byte) (CommentsPage, error) {
	var p commentsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return CommentsPage{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	page := CommentsPage{
		NextPage: p.NextPage,
		Disabled: p.Disabled,
	}
	for _, c := range p.Comments {
		if c.ID == "" {
			continue
		}
		page.Comments = append(page.Comments, Comment{
			ID:          c.ID,
			Author:      c.Author,
			AvatarURL:   c.Thumbnail,
			Time:        c.Time,
			Pinned:      c.Pinned,
			Hearted:     c.Hearted,
			Likes:       c.Likes,
			Text:        SanitizeDescription(c.Text),
			RepliesPage: c.RepliesPage,
			ChannelID:   channelIDFromURL(c.CommentorURL),
		})
	}

	return page, nil
}
