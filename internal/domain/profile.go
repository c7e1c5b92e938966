package domain

import "fmt"

// Quality represents a target rendition quality
type Quality string

const (
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

// VideoCodec is the codec identifier written to the metadata store.
const VideoCodec = "h264"

// QualityParams holds encoding parameters for a quality
type QualityParams struct {
	Width        int
	Height       int
	VideoBitrate string
	AudioBitrate string
}

// Params returns encoding parameters for the quality
func (q Quality) Params() QualityParams {
	configs := map[Quality]QualityParams{
		Quality1080p: {
			Width:        1920,
			Height:       1080,
			VideoBitrate: "5000k",
			AudioBitrate: "192k",
		},
		Quality720p: {
			Width:        1280,
			Height:       720,
			VideoBitrate: "2500k",
			AudioBitrate: "128k",
		},
		Quality480p: {
			Width:        854,
			Height:       480,
			VideoBitrate: "1000k",
			AudioBitrate: "128k",
		},
		Quality360p: {
			Width:        640,
			Height:       360,
			VideoBitrate: "500k",
			AudioBitrate: "96k",
		},
	}
	return configs[q]
}

// Resolution returns the WIDTHxHEIGHT string passed to the encoder.
func (q Quality) Resolution() string {
	p := q.Params()
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// AllQualities returns every quality in encode order. Within one job the
// orchestrator attempts them sequentially in exactly this order.
func AllQualities() []Quality {
	return []Quality{Quality1080p, Quality720p, Quality480p, Quality360p}
}
