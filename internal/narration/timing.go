package narration

// FrameRate spreads chunkCount frames evenly across the narration so the
// video plays for exactly audioSeconds. A non-positive duration falls back
// to one frame per second. A zero chunk count yields zero; callers reject it.
func FrameRate(chunkCount int, audioSeconds float64) float64 {
	if audioSeconds <= 0 {
		return 1
	}
	return float64(chunkCount) / audioSeconds
}

// FramePeriod is the display time of one frame in seconds, or 0 for a
// non-positive rate.
func FramePeriod(fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return 1 / fps
}
