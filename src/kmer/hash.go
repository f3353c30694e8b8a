package kmer

import (
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/will-rowe/ntHash"
)

var (
	// ErrUnknownHasher is returned when a hash function name or id is not registered
	ErrUnknownHasher = errors.New("unknown hash function")

	// ErrSeedUnsupported is returned when a seed is given to a hash function that can't use one
	ErrSeedUnsupported = errors.New("hash function does not support a seed")

	// ErrHashMismatch is returned when a stored hash can't be reproduced from its k-mer
	ErrHashMismatch = errors.New("stored hash does not match recomputed hash")
)

// Hasher hashes k-mer text using a seed
type Hasher interface {
	Name() string
	Hash(kmer []byte, seed uint64) (uint64, error)
}

// Murmur3 returns the first 64 bits of MurmurHash3 x64_128, the seed must fit in 32 bits
type Murmur3 struct{}

// Name of the hash function
func (Murmur3) Name() string { return "murmur3" }

// Hash a k-mer
func (Murmur3) Hash(kmer []byte, seed uint64) (uint64, error) {
	if seed > math.MaxUint32 {
		return 0, fmt.Errorf("%w: murmur3 takes a 32 bit seed, given %d", ErrSeedUnsupported, seed)
	}
	h1, _ := murmur3.Sum128WithSeed(kmer, uint32(seed))
	return h1, nil
}

// XXHash is seeded xxhash64
type XXHash struct{}

// Name of the hash function
func (XXHash) Name() string { return "xxhash" }

// Hash a k-mer
func (XXHash) Hash(kmer []byte, seed uint64) (uint64, error) {
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(kmer)
	return d.Sum64(), nil
}

// NtHash is the canonical ntHash of a whole k-mer, it can't be seeded
type NtHash struct{}

// Name of the hash function
func (NtHash) Name() string { return "nthash" }

// Hash a k-mer
func (NtHash) Hash(kmer []byte, seed uint64) (uint64, error) {
	if seed != 0 {
		return 0, fmt.Errorf("%w: nthash given seed %d", ErrSeedUnsupported, seed)
	}
	seq := make([]byte, len(kmer))
	copy(seq, kmer)
	hasher, err := ntHash.New(&seq, uint(len(seq)))
	if err != nil {
		return 0, err
	}
	var hv uint64
	for h := range hasher.Hash(true) {
		hv = h
	}
	return hv, nil
}

// hashers is the registry of hash functions, the index is the id stored in framed binary sketches
var hashers = []Hasher{Murmur3{}, XXHash{}, NtHash{}}

// aliases are names other tools give to a registered hash function
var aliases = map[string]string{
	"MurmurHash3_x64_128": "murmur3",
}

// DefaultHasher is used when a sketch doesn't name its hash function
var DefaultHasher Hasher = Murmur3{}

// HasherByName returns a registered hash function
func HasherByName(name string) (Hasher, error) {
	if name == "" {
		return DefaultHasher, nil
	}
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	for _, h := range hashers {
		if h.Name() == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
}

// HasherByID returns the hash function registered with id
func HasherByID(id uint8) (Hasher, error) {
	if int(id) >= len(hashers) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownHasher, id)
	}
	return hashers[id], nil
}

// HasherID returns the registry id of a hash function
func HasherID(h Hasher) (uint8, error) {
	for i, registered := range hashers {
		if registered.Name() == h.Name() {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHasher, h.Name())
}

// VerifyHashes checks that every record hash can be reproduced from its k-mer using the hash function and seed
func VerifyHashes(records []Record, h Hasher, seed uint64) error {
	for i, r := range records {
		hv, err := h.Hash(r.Kmer.Bytes(), seed)
		if err != nil {
			return err
		}
		if hv != r.Hash {
			return fmt.Errorf("%w: record %d (%v) has %d, %s with seed %d gives %d", ErrHashMismatch, i, r.Kmer, r.Hash, h.Name(), seed, hv)
		}
	}
	return nil
}
