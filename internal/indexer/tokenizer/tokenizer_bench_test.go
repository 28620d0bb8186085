package tokenizer

import (
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `An inverted index maps every word to the documents that contain it,
        along with the positions where it occurs. Queries intersect the document
        sets of their words and rank each survivor by how often the words appear.`,
	"long": strings.Repeat(`Index files hold a document table followed by the word index.
        Both are chained hash tables laid out on disk with absolute offsets, so a
        reader can follow a bucket chain without loading the file into memory. `, 40),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text)
			}
		})
	}
}

func BenchmarkGroup(b *testing.B) {
	tokens := Tokenize(sampleTexts["long"])
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Group(tokens)
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Tokenize(text)
		}
	})
}
