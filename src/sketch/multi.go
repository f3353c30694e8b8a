package sketch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

// Params is the sketch family metadata shared by all sketches in a container
type Params struct {
	Kmer         uint8
	Alphabet     string
	PreserveCase bool
	Canonical    bool
	SketchSize   uint32
	HashType     string
	HashBits     uint16
	HashSeed     uint64
}

// MultiSketch is a set of JSON sketches built with the same parameters
type MultiSketch struct {
	Kmer         uint8        `json:"kmer" msgpack:"kmer"`
	Alphabet     string       `json:"alphabet" msgpack:"alphabet"`
	PreserveCase bool         `json:"preserveCase" msgpack:"preserveCase"`
	Canonical    bool         `json:"canonical" msgpack:"canonical"`
	SketchSize   uint32       `json:"sketchSize" msgpack:"sketchSize"`
	HashType     string       `json:"hashType" msgpack:"hashType"`
	HashBits     uint16       `json:"hashBits" msgpack:"hashBits"`
	HashSeed     uint64       `json:"hashSeed" msgpack:"hashSeed"`
	Sketches     []JSONSketch `json:"sketches" msgpack:"sketches"`
}

// WithKmerLengthValidation makes container decoding check every record uses the container k-mer size
func WithKmerLengthValidation(validate bool) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.validateKmerSz = validate
	}
}

// NewMultiSketch packages the parameters with a copy of the sketch list, order is kept
func NewMultiSketch(params Params, sketches []JSONSketch) *MultiSketch {
	ms := &MultiSketch{Sketches: make([]JSONSketch, len(sketches))}
	ms.SetParams(params)
	for i := range sketches {
		ms.Sketches[i] = *sketches[i].Clone()
	}
	return ms
}

// Params returns the container metadata
func (ms *MultiSketch) Params() Params {
	return Params{
		Kmer:         ms.Kmer,
		Alphabet:     ms.Alphabet,
		PreserveCase: ms.PreserveCase,
		Canonical:    ms.Canonical,
		SketchSize:   ms.SketchSize,
		HashType:     ms.HashType,
		HashBits:     ms.HashBits,
		HashSeed:     ms.HashSeed,
	}
}

// SetParams overwrites the container metadata
func (ms *MultiSketch) SetParams(p Params) {
	ms.Kmer = p.Kmer
	ms.Alphabet = p.Alphabet
	ms.PreserveCase = p.PreserveCase
	ms.Canonical = p.Canonical
	ms.SketchSize = p.SketchSize
	ms.HashType = p.HashType
	ms.HashBits = p.HashBits
	ms.HashSeed = p.HashSeed
}

// Encode writes the container as JSON
func (ms *MultiSketch) Encode(w io.Writer) error {
	return json.NewEncoder(w).Encode(ms)
}

// DecodeMultiSketch reads a JSON container
//
// Sketches are not checked against the container metadata unless WithKmerLengthValidation(true) is given.
func DecodeMultiSketch(r io.Reader, opts ...DecodeOption) (*MultiSketch, error) {
	ms := &MultiSketch{}
	if err := json.NewDecoder(r).Decode(ms); err != nil {
		return nil, fmt.Errorf("could not decode sketch container: %w", err)
	}
	if err := ms.CheckDecoded(opts...); err != nil {
		return nil, err
	}
	return ms, nil
}

// CheckDecoded runs the checks asked for by opts on a container that has just been decoded from any encoding
func (ms *MultiSketch) CheckDecoded(opts ...DecodeOption) error {
	if newDecodeConfig(opts).validateKmerSz {
		return ms.Validate(opts...)
	}
	return nil
}

// Validate checks that every record of every sketch has the container k-mer size
//
// Sketches without k-mers can't be checked and are skipped.
func (ms *MultiSketch) Validate(opts ...DecodeOption) error {
	for i := range ms.Sketches {
		s := &ms.Sketches[i]
		if s.Kmers == nil {
			continue
		}
		records, err := s.Records(opts...)
		if err != nil {
			return fmt.Errorf("sketch %q: %w", s.Name, err)
		}
		for j, r := range records {
			if r.Kmer.K != ms.Kmer {
				return fmt.Errorf("%w: sketch %q record %d has k=%d, container has k=%d", ErrKmerLengthMismatch, s.Name, j, r.Kmer.K, ms.Kmer)
			}
		}
	}
	return nil
}

// Hasher returns the hash function named by the container
func (ms *MultiSketch) Hasher() (kmer.Hasher, error) {
	return kmer.HasherByName(ms.HashType)
}

// Find returns the first sketch with the given name
func (ms *MultiSketch) Find(name string) (*JSONSketch, bool) {
	for i := range ms.Sketches {
		if ms.Sketches[i].Name == name {
			return &ms.Sketches[i], true
		}
	}
	return nil, false
}
