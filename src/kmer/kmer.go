// Package kmer contains the packed k-mer type, the k-mer record that sketches are built from and the hash functions used to hash k-mers.
package kmer

import (
	"errors"
	"fmt"

	"github.com/biogo/biogo/alphabet"
)

// MaxK is the largest k-mer that fits in a packed uint64
const MaxK = 32

var (
	// ErrInvalidBase is returned when a k-mer contains something other than A/C/G/T
	ErrInvalidBase = errors.New("invalid base in k-mer")

	// ErrKmerLength is returned when a k-mer is empty or longer than MaxK
	ErrKmerLength = errors.New("k-mer length out of range")
)

// seqNT4table converts a base to its 2-bit code, anything > 3 is not a valid base
var seqNT4table = [256]uint8{}

// ntBases is the reverse lookup for seqNT4table
var ntBases = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := range seqNT4table {
		seqNT4table[i] = 4
	}
	for code, base := range ntBases {
		seqNT4table[base] = uint8(code)
		seqNT4table[base+32] = uint8(code)
	}
}

// Bitmer is a 2-bit packed k-mer, the first base occupies the most significant bits
type Bitmer struct {
	Packed uint64
	K      uint8
}

// Pack converts k-mer text to a Bitmer
func Pack(kmer []byte) (Bitmer, error) {
	if len(kmer) == 0 || len(kmer) > MaxK {
		return Bitmer{}, fmt.Errorf("%w: %d", ErrKmerLength, len(kmer))
	}
	var packed uint64
	for i, base := range kmer {
		c := seqNT4table[base]
		if c > 3 {
			return Bitmer{}, fmt.Errorf("%w: %q at position %d", ErrInvalidBase, base, i)
		}
		packed = packed<<2 | uint64(c)
	}
	return Bitmer{Packed: packed, K: uint8(len(kmer))}, nil
}

// Bytes unpacks the Bitmer to upper case k-mer text
func (b Bitmer) Bytes() []byte {
	kmer := make([]byte, b.K)
	packed := b.Packed
	for i := int(b.K) - 1; i >= 0; i-- {
		kmer[i] = ntBases[packed&3]
		packed >>= 2
	}
	return kmer
}

// String returns the k-mer text
func (b Bitmer) String() string {
	return string(b.Bytes())
}

// ReverseComplement returns the reverse complement of the Bitmer
func (b Bitmer) ReverseComplement() Bitmer {
	var rc uint64
	packed := b.Packed
	for i := uint8(0); i < b.K; i++ {
		rc = rc<<2 | (3 - packed&3)
		packed >>= 2
	}
	return Bitmer{Packed: rc, K: b.K}
}

// Canonical returns the smaller of the Bitmer and its reverse complement
func (b Bitmer) Canonical() Bitmer {
	rc := b.ReverseComplement()
	if rc.Packed < b.Packed {
		return rc
	}
	return b
}

// ReverseComplement reverse complements k-mer text, preserving case
func ReverseComplement(kmer []byte) ([]byte, error) {
	rc := make([]byte, len(kmer))
	for i, base := range kmer {
		if seqNT4table[base] > 3 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidBase, base, i)
		}
		comp, ok := alphabet.DNA.Complement(alphabet.Letter(base))
		if !ok {
			return nil, fmt.Errorf("%w: %q has no complement", ErrInvalidBase, base)
		}
		rc[len(kmer)-1-i] = byte(comp)
	}
	return rc, nil
}

// Record is a single entry of a sketch
//
// ExtraCount is only populated by some producers (and by the tolerant JSON schema), nothing in this module interprets it.
type Record struct {
	Hash       uint64
	Kmer       Bitmer
	Count      uint16
	ExtraCount uint16
}

// Equal reports whether two records hold the same hash, k-mer and count
func (r Record) Equal(other Record) bool {
	return r.Hash == other.Hash && r.Kmer == other.Kmer && r.Count == other.Count
}
