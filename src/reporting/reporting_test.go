package reporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

func TestCountHistogram(t *testing.T) {
	b, err := kmer.Pack([]byte("ACGT"))
	if err != nil {
		t.Fatal(err)
	}
	records := []kmer.Record{{Kmer: b, Count: 1}, {Kmer: b, Count: 3}, {Kmer: b, Count: 3}, {Kmer: b, Count: 9}}
	fileName := filepath.Join(t.TempDir(), "counts.png")
	if err := CountHistogram(records, 4, "test sketch", fileName); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(fileName); err != nil || info.Size() == 0 {
		t.Fatalf("histogram was not written: %v", err)
	}
	if err := CountHistogram(nil, 4, "empty", fileName); err == nil {
		t.Fatal("should not plot an empty sketch")
	}
	if err := CountHistogram(records, 0, "no bins", fileName); err == nil {
		t.Fatal("should not plot without bins")
	}
}
