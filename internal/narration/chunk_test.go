package narration

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkLength(t *testing.T) {
	tests := []struct {
		width, size int
		want        int
	}{
		{600, 20, 30},
		{600, 30, 20},
		{599, 20, 29},
		{10, 20, 1},
		{0, 20, 1},
		{100, 0, 100},
		{100, -5, 100},
	}
	for _, tt := range tests {
		if got := ChunkLength(tt.width, tt.size); got != tt.want {
			t.Errorf("ChunkLength(%d, %d) = %d, want %d", tt.width, tt.size, got, tt.want)
		}
	}
}

func TestChunk_ConcatenationPreservesBody(t *testing.T) {
	bodies := []string{
		"a",
		"hello world",
		"内閣改造において、政府は異例の人事を発表し、元宇宙飛行士である加藤太郎氏を新たな外務大臣に任命することを発表しました。",
		strings.Repeat("xy", 97),
		"mixed 日本語 and ascii 123",
	}
	sizes := []struct{ width, size int }{{600, 20}, {50, 20}, {7, 3}, {1, 1}, {5, 20}}

	for _, body := range bodies {
		for _, s := range sizes {
			chunks := Chunk(body, s.width, s.size)
			if got := strings.Join(chunks, ""); got != body {
				t.Fatalf("Chunk(%q, %d, %d) joined = %q", body, s.width, s.size, got)
			}
			n := ChunkLength(s.width, s.size)
			for i, c := range chunks {
				l := utf8.RuneCountInString(c)
				if l == 0 {
					t.Errorf("chunk %d is empty", i)
				}
				if i < len(chunks)-1 && l != n {
					t.Errorf("chunk %d has %d runes, want %d", i, l, n)
				}
				if l > n {
					t.Errorf("chunk %d has %d runes, exceeds %d", i, l, n)
				}
			}
		}
	}
}

func TestChunk_Empty(t *testing.T) {
	if got := Chunk("", 600, 20); len(got) != 0 {
		t.Errorf("Chunk(\"\") = %v, want empty", got)
	}
}

func TestChunk_NarrowImage(t *testing.T) {
	got := Chunk("abc", 10, 20)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Chunk() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunk_FortyCharsAt600px(t *testing.T) {
	body := strings.Repeat("速", 40)
	chunks := Chunk(body, 600, 20)
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) != 30 || utf8.RuneCountInString(chunks[1]) != 10 {
		t.Errorf("chunk sizes = %d, %d, want 30, 10",
			utf8.RuneCountInString(chunks[0]), utf8.RuneCountInString(chunks[1]))
	}
}

func TestChunk_InvalidUTF8KeptByteForByte(t *testing.T) {
	body := "ab\xffcd\xe6\x97"
	for _, width := range []int{40, 2, 1} {
		chunks := Chunk(body, width, 1)
		if got := strings.Join(chunks, ""); got != body {
			t.Errorf("Chunk(width=%d) joined = %q, want %q", width, got, body)
		}
	}
	if got := Chunk("ab\xffcd", 2, 1); len(got) != 3 || got[1] != "\xffc" {
		t.Errorf("Chunk() = %q, want invalid byte counted as one character", got)
	}
}
