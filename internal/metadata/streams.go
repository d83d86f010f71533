package metadata

import "sort"

// preferredAudioFormat is the only audio codec tag paired into adaptive
// streams; other codecs are not supported by the composition pipeline.
const preferredAudioFormat = "M4A"

// extractStreams flattens a streams payload into playable variants:
//
//   - an HLS manifest url, when present, becomes one single-asset stream
//   - the best-bitrate M4A audio candidate is paired with every video-only
//     candidate to form adaptive variants
//   - video candidates that are not video-only are already muxed and become
//     single-asset streams directly
//
// Without a qualifying audio candidate no adaptive variants are produced;
// the HLS stream, if any, is still returned.
func extractStreams(p *videoPayload) []Stream {
	var streams []Stream

	if p.HLS != "" {
		streams = append(streams, Stream{Kind: StreamKindHLS, URL: p.HLS})
	}

	audio := bestAudioCandidate(p.AudioStreams)

	for _, vs := range p.VideoStreams {
		if vs.URL == "" {
			continue
		}
		if !vs.VideoOnly {
			streams = append(streams, Stream{
				Kind:        StreamKindStream,
				URL:         vs.URL,
				Resolution:  vs.Quality,
				VideoFormat: vs.Format,
			})
			continue
		}
		if audio == nil {
			continue
		}
		streams = append(streams, Stream{
			Kind:        StreamKindAdaptive,
			AudioURL:    audio.URL,
			VideoURL:    vs.URL,
			Resolution:  vs.Quality,
			VideoFormat: vs.Format,
		})
	}

	return streams
}

// bestAudioCandidate filters candidates to the supported codec tag and
// returns the one with the highest bitrate, or nil.
func bestAudioCandidate(candidates []streamPayload) *streamPayload {
	qualified := make([]streamPayload, 0, len(candidates))
	for _, c := range candidates {
		if c.Format == preferredAudioFormat && c.URL != "" {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) == 0 {
		return nil
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Bitrate > qualified[j].Bitrate
	})

	return &qualified[0]
}
