// Package narration lays narration text out as subtitle chunks and derives
// the frame rate that keeps those chunks in step with the spoken audio.
package narration

import "unicode/utf8"

// ChunkLength is the number of characters that fit across an image of the
// given pixel width at the given per-character size. Never less than one.
func ChunkLength(width, size int) int {
	if size <= 0 {
		size = 1
	}
	n := width / size
	if n < 1 {
		return 1
	}
	return n
}

// Chunk splits body into consecutive runs of ChunkLength(width, size)
// characters. Splitting is positional and rune-based; the last run may be
// shorter. An empty body yields no chunks. Chunks are cut from body's own
// bytes, so an invalid UTF-8 byte counts as one character and is kept as is.
func Chunk(body string, width, size int) []string {
	if body == "" {
		return nil
	}

	n := ChunkLength(width, size)
	chunks := make([]string, 0, (utf8.RuneCountInString(body)+n-1)/n)
	for len(body) > 0 {
		end := 0
		for i := 0; i < n && end < len(body); i++ {
			_, w := utf8.DecodeRuneInString(body[end:])
			end += w
		}
		chunks = append(chunks, body[:end])
		body = body[end:]
	}
	return chunks
}
