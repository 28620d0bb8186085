package fileindex

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func benchCorpus(n int) map[string]string {
	words := strings.Fields("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu")
	docs := make(map[string]string, n)
	for i := 0; i < n; i++ {
		var sb strings.Builder
		for j := 0; j < 50; j++ {
			fmt.Fprintf(&sb, "%s%d ", words[(i+j)%len(words)], j%7)
		}
		docs[fmt.Sprintf("docs/%04d.txt", i)] = sb.String()
	}
	return docs
}

func BenchmarkWriteIndex(b *testing.B) {
	dt, mi := buildIndex(b, benchCorpus(1000))
	path := filepath.Join(b.TempDir(), "bench.idx")
	w := NewWriter()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n, err := w.WriteIndex(mi, dt, path)
		if err != nil {
			b.Fatal(err)
		}
		b.SetBytes(n)
	}
}

func BenchmarkOpenValidated(b *testing.B) {
	dt, mi := buildIndex(b, benchCorpus(1000))
	path := filepath.Join(b.TempDir(), "bench.idx")
	if _, err := NewWriter().WriteIndex(mi, dt, path); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Open(path, true)
		if err != nil {
			b.Fatal(err)
		}
		r.Close()
	}
}

func BenchmarkLookupWord(b *testing.B) {
	dt, mi := buildIndex(b, benchCorpus(1000))
	path := filepath.Join(b.TempDir(), "bench.idx")
	if _, err := NewWriter().WriteIndex(mi, dt, path); err != nil {
		b.Fatal(err)
	}
	r, err := Open(path, false)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()
	it, err := r.GetIndexTableReader()
	if err != nil {
		b.Fatal(err)
	}
	defer it.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := it.LookupWord("gamma3"); err != nil {
			b.Fatal(err)
		}
	}
}
