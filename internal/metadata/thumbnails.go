package metadata

import "strings"

// thumbnailFileTokens are the canonical filename tokens a backend thumbnail
// url is expected to carry. Variants are derived by substituting one of
// these with a quality-specific filename.
var thumbnailFileTokens = []string{"hqdefault", "maxresdefault"}

// thumbnailQualities is the fixed quality ladder, worst to best.
var thumbnailQualities = []struct {
	name string
	file string
}{
	{"default", "default"},
	{"medium", "mqdefault"},
	{"high", "hqdefault"},
	{"standard", "sddefault"},
	{"max", "maxresdefault"},
}

// ThumbnailVariants derives the quality ladder from a single thumbnail url.
// A variant is included only when the canonical token substitution applies;
// an unrecognized url yields just the original as a single entry.
func ThumbnailVariants(baseURL string) []Thumbnail {
	if baseURL == "" {
		return nil
	}

	token := ""
	for _, t := range thumbnailFileTokens {
		if strings.Contains(baseURL, t) {
			token = t
			break
		}
	}
	if token == "" {
		return []Thumbnail{{URL: baseURL, Quality: "default"}}
	}

	variants := make([]Thumbnail, 0, len(thumbnailQualities))
	for _, q := range thumbnailQualities {
		variants = append(variants, Thumbnail{
			URL:     strings.Replace(baseURL, token, q.file, 1),
			Quality: q.name,
		})
	}

	return variants
}
