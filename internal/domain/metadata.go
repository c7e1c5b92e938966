package domain

// MediaInfo holds the inspected properties of a source video
type MediaInfo struct {
	// DurationSec is the floored duration in seconds. Zero means unknown;
	// percentage-based progress is skipped in that case.
	DurationSec int    `json:"duration"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bitrate     string `json:"bitrate"`
}

// VideoQuality is one persisted rendition row, keyed by (movie, quality).
// Re-running a conversion for the same movie overwrites these rows.
type VideoQuality struct {
	MovieID     int64   `json:"movieId" db:"movie_id"`
	Quality     Quality `json:"quality" db:"quality"`
	FilePath    string  `json:"filePath" db:"file_path"`
	FileSize    int64   `json:"fileSize" db:"file_size"`
	DurationSec int     `json:"duration" db:"duration"`
	Bitrate     string  `json:"bitrate" db:"bitrate"`
	Codec       string  `json:"codec" db:"codec"`
}
