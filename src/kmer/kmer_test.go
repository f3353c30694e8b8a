package kmer

import (
	"errors"
	"math"
	"testing"
)

var (
	testKmers = []string{"ACGT", "TTTT", "GGGG", "A", "ACGTACGTACGTACGTACGTACGTACGTACGT"}
	testSeed  = uint64(42)
)

func TestPackRoundTrip(t *testing.T) {
	for _, k := range testKmers {
		b, err := Pack([]byte(k))
		if err != nil {
			t.Fatal(err)
		}
		if int(b.K) != len(k) {
			t.Fatalf("packed k-mer size should be %d, not %d", len(k), b.K)
		}
		if b.String() != k {
			t.Fatalf("unpacked k-mer should be %v, not %v", k, b.String())
		}
	}
}

func TestPackValues(t *testing.T) {
	b, err := Pack([]byte("acgt"))
	if err != nil {
		t.Fatal(err)
	}
	// A=0 C=1 G=2 T=3 -> 00 01 10 11
	if b.Packed != 0x1b {
		t.Fatalf("ACGT should pack to 0x1b, not %#x", b.Packed)
	}
}

func TestPackErrors(t *testing.T) {
	if _, err := Pack([]byte("ACNT")); !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("expected ErrInvalidBase, got %v", err)
	}
	if _, err := Pack(nil); !errors.Is(err, ErrKmerLength) {
		t.Fatalf("expected ErrKmerLength for empty k-mer, got %v", err)
	}
	if _, err := Pack([]byte(testKmers[4] + "A")); !errors.Is(err, ErrKmerLength) {
		t.Fatalf("expected ErrKmerLength for 33-mer, got %v", err)
	}
}

func TestReverseComplement(t *testing.T) {
	b, _ := Pack([]byte("AACG"))
	if rc := b.ReverseComplement().String(); rc != "CGTT" {
		t.Fatalf("reverse complement of AACG should be CGTT, not %v", rc)
	}
	if c := b.Canonical().String(); c != "AACG" {
		t.Fatalf("canonical k-mer of AACG should be AACG, not %v", c)
	}
	rc, err := ReverseComplement([]byte("AACg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(rc) != "cGTT" {
		t.Fatalf("reverse complement of AACg should be cGTT, not %v", string(rc))
	}
	if _, err := ReverseComplement([]byte("AN")); !errors.Is(err, ErrInvalidBase) {
		t.Fatalf("expected ErrInvalidBase, got %v", err)
	}
}

func TestHashers(t *testing.T) {
	for _, name := range []string{"murmur3", "xxhash", "nthash"} {
		h, err := HasherByName(name)
		if err != nil {
			t.Fatal(err)
		}
		a, err := h.Hash([]byte("ACGTA"), 0)
		if err != nil {
			t.Fatal(err)
		}
		b, err := h.Hash([]byte("ACGTA"), 0)
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Fatalf("%v is not deterministic", name)
		}
		id, err := HasherID(h)
		if err != nil {
			t.Fatal(err)
		}
		if back, _ := HasherByID(id); back.Name() != name {
			t.Fatalf("hasher id %d should map back to %v", id, name)
		}
	}
	if _, err := HasherByName("md5"); !errors.Is(err, ErrUnknownHasher) {
		t.Fatalf("expected ErrUnknownHasher, got %v", err)
	}
	if _, err := HasherByID(200); !errors.Is(err, ErrUnknownHasher) {
		t.Fatalf("expected ErrUnknownHasher, got %v", err)
	}
	if _, err := (NtHash{}).Hash([]byte("ACGT"), testSeed); !errors.Is(err, ErrSeedUnsupported) {
		t.Fatalf("expected ErrSeedUnsupported, got %v", err)
	}
}

func TestSeedChangesHash(t *testing.T) {
	for _, h := range []Hasher{Murmur3{}, XXHash{}} {
		a, _ := h.Hash([]byte("ACGT"), 0)
		b, _ := h.Hash([]byte("ACGT"), testSeed)
		if a == b {
			t.Fatalf("%v should give different hashes for seeds 0 and %d", h.Name(), testSeed)
		}
	}
}

func TestMurmur3SeedRange(t *testing.T) {
	h := Murmur3{}
	if _, err := h.Hash([]byte("ACGT"), math.MaxUint32); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Hash([]byte("ACGT"), 1<<32|1); !errors.Is(err, ErrSeedUnsupported) {
		t.Fatalf("expected ErrSeedUnsupported for a seed over 32 bits, got %v", err)
	}

	// a record hashed with seed 1 can't be verified against seed 2^32+1
	b, _ := Pack([]byte("ACGT"))
	hv, _ := h.Hash([]byte("ACGT"), 1)
	if err := VerifyHashes([]Record{{Hash: hv, Kmer: b, Count: 1}}, h, 1<<32|1); err == nil {
		t.Fatal("verifying with a seed that differs in the high bits should fail")
	}
}

func TestHasherAliases(t *testing.T) {
	h, err := HasherByName("MurmurHash3_x64_128")
	if err != nil {
		t.Fatal(err)
	}
	if h.Name() != "murmur3" {
		t.Fatalf("MurmurHash3_x64_128 should map to murmur3, not %v", h.Name())
	}
}

func TestVerifyHashes(t *testing.T) {
	h := Murmur3{}
	records := make([]Record, len(testKmers))
	for i, k := range testKmers {
		b, _ := Pack([]byte(k))
		hv, _ := h.Hash([]byte(k), testSeed)
		records[i] = Record{Hash: hv, Kmer: b, Count: 1}
	}
	if err := VerifyHashes(records, h, testSeed); err != nil {
		t.Fatal(err)
	}
	if err := VerifyHashes(records, h, 0); !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch when verifying with the wrong seed, got %v", err)
	}
}

func BenchmarkPack(b *testing.B) {
	kmer := []byte(testKmers[4])
	for n := 0; n < b.N; n++ {
		if _, err := Pack(kmer); err != nil {
			b.Fatal(err)
		}
	}
}
