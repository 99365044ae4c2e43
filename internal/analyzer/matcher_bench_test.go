package analyzer

import (
	"strings"
	"testing"
)

// benchmarkContent builds a photo description of roughly size bytes.
func benchmarkContent(size int) string {
	sb := strings.Builder{}
	sb.Grow(size)

	paragraphs := []string{
		"Golden retriever puppy playing on the beach at sunrise. Shot handheld with a 50mm lens.",
		"The dog chased the waves for an hour! Light was soft and warm, perfect for portraits.",
		"Part of my series on dogs at the seaside. More photos in the album linked below.",
		"Edited in Lightroom with a light film preset. Is this the happiest dog in the world?",
	}

	for sb.Len() < size {
		for _, p := range paragraphs {
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func BenchmarkFindTermMatches_Description(b *testing.B) {
	content := benchmarkContent(1024)
	terms := QueryTerms("golden retriever dog")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, terms)
	}
}

func BenchmarkFindTermMatches_LargeContent(b *testing.B) {
	content := benchmarkContent(100 * 1024)
	terms := []string{"dog", "beach", "retriever", "sunrise", "lightroom", "album"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, terms)
	}
}

func BenchmarkSplitIntoSentences(b *testing.B) {
	content := benchmarkContent(50 * 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		splitIntoSentences(content)
	}
}

func TestSplitIntoSentences(t *testing.T) {
	sentences := splitIntoSentences("First sentence. Second one!  Third?\n\nFourth")

	want := []string{"First sentence.", "Second one!", "Third?", "Fourth"}
	if len(sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %d", len(want), len(sentences))
	}
	for i, w := range want {
		if sentences[i].original != w {
			t.Errorf("sentence %d: expected %q, got %q", i, w, sentences[i].original)
		}
	}
}
