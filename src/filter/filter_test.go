package filter

import (
	"errors"
	"testing"

	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/sketch"
)

// the filters must be usable by the sketch codec
var (
	_ sketch.Filter = (*Abundance)(nil)
	_ sketch.Filter = Func(nil)
)

// setup variables
var (
	testCounts = []uint16{1, 100, 1, 200, 1, 100}
	testExtra  = []uint16{0, 50, 0, 190, 0, 10}
)

func testRecords(t *testing.T) []kmer.Record {
	records := make([]kmer.Record, len(testCounts))
	for i := range testCounts {
		b, err := kmer.Pack([]byte("ACGTACG"))
		if err != nil {
			t.Fatal(err)
		}
		records[i] = kmer.Record{Hash: uint64(i), Kmer: b, Count: testCounts[i], ExtraCount: testExtra[i]}
	}
	return records
}

func hashesOf(records []kmer.Record) []uint64 {
	hashes := make([]uint64, len(records))
	for i, r := range records {
		hashes[i] = r.Hash
	}
	return hashes
}

func checkHashes(t *testing.T, records []kmer.Record, expected ...uint64) {
	t.Helper()
	got := hashesOf(records)
	if len(got) != len(expected) {
		t.Fatalf("expected records %v, got %v", expected, got)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("expected records %v, got %v", expected, got)
		}
	}
}

func TestParams(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []Params{
		{ErrorFraction: 1},
		{ErrorFraction: -0.1},
		{StrandFilter: 0.6},
		{LowAbundance: 10, HighAbundance: 5},
		{SketchSize: -1},
	} {
		if _, err := NewAbundance(p); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("params %+v should be invalid, got %v", p, err)
		}
	}
}

func TestErrorCutoff(t *testing.T) {
	// total count is 403, the three singletons hold 3 which is under 1%
	f, err := NewAbundance(Params{ErrorFraction: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	kept, stats, err := f.Filter(testRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	checkHashes(t, kept, 1, 3, 5)
	if stats["minCopies"] != "2" || stats["outputRecords"] != "3" || stats["inputRecords"] != "6" {
		t.Fatalf("unexpected filter stats: %v", stats)
	}

	// a tiny fraction can't remove anything
	f, _ = NewAbundance(Params{ErrorFraction: 0.0001})
	kept, stats, _ = f.Filter(testRecords(t))
	if len(kept) != len(testCounts) || stats["minCopies"] != "0" {
		t.Fatalf("nothing should be filtered, kept %d (%v)", len(kept), stats)
	}
}

func TestAbundanceCutoffs(t *testing.T) {
	f, _ := NewAbundance(Params{LowAbundance: 2, HighAbundance: 150})
	kept, stats, err := f.Filter(testRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	checkHashes(t, kept, 1, 5)
	if stats["maxCopies"] != "150" {
		t.Fatalf("unexpected filter stats: %v", stats)
	}
}

func TestStrandFilter(t *testing.T) {
	// record 3 is 95% forward and record 5 is 10% forward, singletons have no strand info
	f, _ := NewAbundance(Params{StrandFilter: 0.2})
	kept, _, err := f.Filter(testRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	checkHashes(t, kept, 0, 1, 2, 4)
}

func TestSketchSize(t *testing.T) {
	f, _ := NewAbundance(Params{SketchSize: 2, LowAbundance: 2})
	kept, stats, err := f.Filter(testRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	checkHashes(t, kept, 1, 3)
	if stats["sketchSize"] != "2" {
		t.Fatalf("unexpected filter stats: %v", stats)
	}
}

func TestFilterSketch(t *testing.T) {
	records := testRecords(t)
	s, err := sketch.NewJSONSketch("reads", 100, records, map[string]string{"note": "unfiltered"})
	if err != nil {
		t.Fatal(err)
	}
	f, _ := NewAbundance(Params{LowAbundance: 2})
	if !s.ApplyFiltering(f) {
		t.Fatal("could not filter sketch")
	}
	if s.Len() != 3 {
		t.Fatalf("filtered sketch should have 3 records, not %d", s.Len())
	}
	if _, ok := s.Filters["note"]; ok || s.Filters["minCopies"] != "2" {
		t.Fatalf("sketch metadata should be the filter stats, got %v", s.Filters)
	}

	// filtering again is allowed, the earlier stats are lost
	f, _ = NewAbundance(Params{LowAbundance: 150})
	if !s.ApplyFiltering(f) {
		t.Fatal("could not re-filter sketch")
	}
	if s.Len() != 1 || s.Filters["minCopies"] != "150" {
		t.Fatalf("re-filtered sketch should have 1 record, not %d (%v)", s.Len(), s.Filters)
	}
}
