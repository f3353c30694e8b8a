package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/sketch"
)

var (
	testKmers  = []string{"ACGTA", "TTTTA", "GGGGC"}
	testCounts = []uint16{3, 1, 7}
	testSeed   = uint64(7)
	testParams = sketch.Params{Kmer: 5, Alphabet: "ACGT", SketchSize: 3, HashType: "xxhash", HashBits: 64, HashSeed: 7}
)

func testRecords(t *testing.T) []kmer.Record {
	h := kmer.XXHash{}
	records := make([]kmer.Record, len(testKmers))
	for i, k := range testKmers {
		b, err := kmer.Pack([]byte(k))
		require.NoError(t, err)
		hv, err := h.Hash([]byte(k), testSeed)
		require.NoError(t, err)
		records[i] = kmer.Record{Hash: hv, Kmer: b, Count: testCounts[i]}
	}
	return records
}

func testContainer(t *testing.T) *sketch.MultiSketch {
	a, err := sketch.NewJSONSketch("a", 100, testRecords(t), map[string]string{"k": "v"})
	require.NoError(t, err)
	b, err := sketch.NewJSONSketch("b", 200, testRecords(t)[1:], nil)
	require.NoError(t, err)
	return sketch.NewMultiSketch(testParams, []sketch.JSONSketch{*a, *b})
}

func TestFormatOf(t *testing.T) {
	for path, expected := range map[string][2]int{
		"x.json":         {int(FormatJSON), int(CompressionNone)},
		"dir/x.JSON.gz":  {int(FormatJSON), int(CompressionGzip)},
		"x.msgpack.zst":  {int(FormatMsgpack), int(CompressionZstd)},
		"x.mpk":          {int(FormatMsgpack), int(CompressionNone)},
		"x.bin":          {int(FormatBinary), int(CompressionNone)},
		"sample.kmsk.gz": {int(FormatFramed), int(CompressionGzip)},
	} {
		format, compression, err := FormatOf(path)
		require.NoError(t, err, path)
		require.Equal(t, expected, [2]int{int(format), int(compression)}, path)
	}
	_, _, err := FormatOf("x.fasta")
	require.ErrorIs(t, err, ErrUnknownFormat)

	f, err := ParseFormat("KMSK")
	require.NoError(t, err)
	require.Equal(t, FormatFramed, f)
	_, err = ParseFormat("yaml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestMultiRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ms := testContainer(t)
	for _, name := range []string{"s.json", "s.json.gz", "s.msgpack", "s.mpk.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, DumpMulti(ms, path))
		loaded, err := LoadMulti(path, sketch.WithKmerLengthValidation(true))
		require.NoError(t, err, name)
		require.Equal(t, ms.Params(), loaded.Params(), name)
		require.Len(t, loaded.Sketches, 2)
		for i := range ms.Sketches {
			expected, err := ms.Sketches[i].Records()
			require.NoError(t, err)
			got, err := loaded.Sketches[i].Records()
			require.NoError(t, err, name)
			require.Equal(t, expected, got, name)
			require.Equal(t, ms.Sketches[i].Filters, loaded.Sketches[i].Filters, name)
			require.Equal(t, *ms.Sketches[i].SeqLength, *loaded.Sketches[i].SeqLength, name)
		}
	}
}

func TestMultiWrongFormat(t *testing.T) {
	dir := t.TempDir()
	require.ErrorIs(t, DumpMulti(testContainer(t), filepath.Join(dir, "s.bin")), ErrWrongFormat)
	_, err := LoadMulti(filepath.Join(dir, "s.kmsk"))
	require.ErrorIs(t, err, ErrWrongFormat)
	_, err = LoadMulti(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := testRecords(t)
	bs, err := sketch.NewBinarySketch(records)
	require.NoError(t, err)
	h := kmer.XXHash{}

	// framed files carry the hash function and seed
	for _, name := range []string{"s.kmsk", "s.kmsk.gz", "s.kmsk.zst"} {
		path := filepath.Join(dir, name)
		require.NoError(t, DumpBinary(bs, path, h, testSeed))
		loaded, header, err := LoadBinary(path)
		require.NoError(t, err, name)
		require.NotNil(t, header, name)
		require.Equal(t, testSeed, header.Seed)
		got, err := loaded.Records(header.Hasher, header.Seed)
		require.NoError(t, err)
		require.Equal(t, records, got, name)
	}

	// legacy files need the caller to know them
	path := filepath.Join(dir, "s.bin.gz")
	require.NoError(t, DumpBinary(bs, path, h, testSeed))
	loaded, header, err := LoadBinary(path)
	require.NoError(t, err)
	require.Nil(t, header)
	got, err := loaded.Records(h, testSeed)
	require.NoError(t, err)
	require.Equal(t, records, got)

	require.ErrorIs(t, DumpBinary(bs, filepath.Join(dir, "s.json"), h, testSeed), ErrWrongFormat)
}

func TestCorruptBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))
	_, _, err := LoadBinary(path)
	require.ErrorIs(t, err, sketch.ErrCorrupt)
}
