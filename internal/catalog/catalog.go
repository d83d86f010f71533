// Package catalog selects between a video's playable variants.
package catalog

import (
	"regexp"
	"strconv"

	"github.com/playtube/server/internal/metadata"
)

var heightPattern = regexp.MustCompile(`([0-9]{3,4})p`)

// parseHeight extracts the pixel height from a resolution label like
// "720p" or "1080p60". Unknown labels (and HLS manifests, which carry no
// label) report 0.
func parseHeight(label string) int {
	m := heightPattern.FindStringSubmatch(label)
	if len(m) < 2 {
		return 0
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return h
}

// better reports whether candidate should be preferred over current under
// the given height cap. Higher resolution wins as long as it does not
// exceed the cap; between equal resolutions non-HLS adaptive variants win
// because they seek more precisely than segmented manifests.
func better(candidate, current metadata.Stream, maxHeight int) bool {
	ch := parseHeight(candidate.Resolution)
	cu := parseHeight(current.Resolution)

	if maxHeight > 0 {
		candidateFits := ch <= maxHeight
		currentFits := cu <= maxHeight
		if candidateFits != currentFits {
			return candidateFits
		}
		if !candidateFits {
			// Neither qualifies: fall back towards the lowest available.
			return ch < cu
		}
	}

	if ch != cu {
		return ch > cu
	}
	return candidate.Kind == metadata.StreamKindAdaptive && current.Kind == metadata.StreamKindHLS
}

// Preferred picks the variant to play for a quality preference expressed as
// a maximum height in pixels (0 means unlimited). It returns false on an
// empty variant list.
func Preferred(streams []metadata.Stream, maxHeight int) (metadata.Stream, bool) {
	if len(streams) == 0 {
		return metadata.Stream{}, false
	}

	best := streams[0]
	for _, s := range streams[1:] {
		if better(s, best, maxHeight) {
			best = s
		}
	}

	return best, true
}

// UpgradeCommand asks the session controller to reload playback at a new
// variant while preserving the current position.
type UpgradeCommand struct {
	Target           metadata.Stream
	PreservePosition bool
}

// Upgrade builds the reload command for switching variants mid-playback.
// Switching to the variant already playing is a no-op and returns false.
func Upgrade(current, target metadata.Stream) (UpgradeCommand, bool) {
	if current == target {
		return UpgradeCommand{}, false
	}
	return UpgradeCommand{Target: target, PreservePosition: true}, true
}
