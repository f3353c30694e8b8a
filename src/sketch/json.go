// Package sketch contains the JSON and binary codecs for MinHash sketches, the multi-sketch container and the distance result.
package sketch

import (
	"fmt"
	"strconv"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

// Filter reduces a set of records, returning the survivors and some stats describing what it did
type Filter interface {
	Filter(records []kmer.Record) ([]kmer.Record, map[string]string, error)
}

// JSONSketch is the textual form of a sketch
//
// Hashes, Kmers and Counts are parallel lists; a nil Kmers or Counts means the field was absent.
// Hashes are decimal text so that 64 bit values survive JSON parsers that use floats.
type JSONSketch struct {
	Name      string            `json:"name" msgpack:"name"`
	SeqLength *uint64           `json:"seqLength" msgpack:"seqLength"`
	Comment   *string           `json:"comment" msgpack:"comment"`
	Filters   map[string]string `json:"filters" msgpack:"filters"`
	Schema    Schema            `json:"schema,omitempty" msgpack:"schema,omitempty"`
	Hashes    []string          `json:"hashes" msgpack:"hashes"`
	Kmers     []string          `json:"kmers" msgpack:"kmers"`
	Counts    []uint16          `json:"counts" msgpack:"counts"`
}

// DecodeOption configures JSON sketch and container decoding
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	schema         Schema
	validateKmerSz bool
}

func newDecodeConfig(opts []DecodeOption) *decodeConfig {
	cfg := &decodeConfig{schema: SchemaStrict}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithSchema sets the schema used for sketches that don't declare one
func WithSchema(s Schema) DecodeOption {
	return func(cfg *decodeConfig) {
		if s != SchemaDefault {
			cfg.schema = s
		}
	}
}

// NewJSONSketch creates a JSON sketch from records, keeping their order
//
// The metadata is copied. Records without a k-mer (K == 0) can only be encoded if none of the records has one, in which case the k-mer list is left absent.
func NewJSONSketch(name string, seqLength uint64, records []kmer.Record, metadata map[string]string) (*JSONSketch, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	comment := ""
	s := &JSONSketch{
		Name:      name,
		SeqLength: &seqLength,
		Comment:   &comment,
		Filters:   copyMetadata(metadata),
	}
	if err := s.setRecords(records); err != nil {
		return nil, err
	}
	return s, nil
}

// setRecords overwrites the parallel lists
func (s *JSONSketch) setRecords(records []kmer.Record) error {
	hashes := make([]string, len(records))
	counts := make([]uint16, len(records))
	var kmers []string
	withKmer := 0
	for _, r := range records {
		if r.Kmer.K != 0 {
			withKmer++
		}
	}
	switch withKmer {
	case 0:
	case len(records):
		kmers = make([]string, len(records))
	default:
		return fmt.Errorf("%w: %d of %d records have no k-mer", ErrMixedKmerLength, len(records)-withKmer, len(records))
	}
	for i, r := range records {
		hashes[i] = strconv.FormatUint(r.Hash, 10)
		counts[i] = r.Count
		if kmers != nil {
			kmers[i] = r.Kmer.String()
		}
	}
	// an empty sketch still has (empty) k-mers
	if len(records) == 0 {
		kmers = []string{}
	}
	s.Hashes, s.Kmers, s.Counts = hashes, kmers, counts
	return nil
}

// Len is the number of records in the sketch
func (s *JSONSketch) Len() int {
	return len(s.Hashes)
}

// Records decodes the sketch, either every record is returned or none are
func (s *JSONSketch) Records(opts ...DecodeOption) ([]kmer.Record, error) {
	cfg := newDecodeConfig(opts)
	schema := s.Schema
	if schema == SchemaDefault {
		schema = cfg.schema
	}
	dec, err := decoderFor(schema)
	if err != nil {
		return nil, err
	}
	if err := dec.check(s); err != nil {
		return nil, err
	}
	records := make([]kmer.Record, len(s.Hashes))
	for i, text := range s.Hashes {
		hash, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return nil, &ParseError{Index: i, Text: text, Err: err}
		}
		if records[i], err = dec.record(s, i, hash); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Filtered returns a new sketch holding the records that pass the filter
//
// The metadata of the new sketch is replaced by the filter stats. The receiver is not modified.
func (s *JSONSketch) Filtered(f Filter, opts ...DecodeOption) (*JSONSketch, error) {
	records, err := s.Records(opts...)
	if err != nil {
		return nil, err
	}
	kept, stats, err := f.Filter(records)
	if err != nil {
		return nil, fmt.Errorf("could not filter sketch %q: %w", s.Name, err)
	}
	filtered := s.Clone()
	filtered.Filters = copyMetadata(stats)
	if err := filtered.setRecords(kept); err != nil {
		return nil, err
	}
	return filtered, nil
}

// ApplyFiltering filters the sketch in place, returning false (and leaving the sketch untouched) if it can't be decoded or filtered
//
// The sketch must not be used by anything else while this runs.
func (s *JSONSketch) ApplyFiltering(f Filter, opts ...DecodeOption) bool {
	filtered, err := s.Filtered(f, opts...)
	if err != nil {
		return false
	}
	*s = *filtered
	return true
}

// VerifyHashes checks the stored hashes against the hash function and seed
func (s *JSONSketch) VerifyHashes(h kmer.Hasher, seed uint64, opts ...DecodeOption) error {
	records, err := s.Records(opts...)
	if err != nil {
		return err
	}
	if err := kmer.VerifyHashes(records, h, seed); err != nil {
		return fmt.Errorf("sketch %q: %w", s.Name, err)
	}
	return nil
}

// Clone returns a deep copy of the sketch
func (s *JSONSketch) Clone() *JSONSketch {
	c := &JSONSketch{
		Name:    s.Name,
		Schema:  s.Schema,
		Filters: copyMetadata(s.Filters),
	}
	if s.SeqLength != nil {
		l := *s.SeqLength
		c.SeqLength = &l
	}
	if s.Comment != nil {
		comment := *s.Comment
		c.Comment = &comment
	}
	if s.Hashes != nil {
		c.Hashes = append(make([]string, 0, len(s.Hashes)), s.Hashes...)
	}
	if s.Kmers != nil {
		c.Kmers = append(make([]string, 0, len(s.Kmers)), s.Kmers...)
	}
	if s.Counts != nil {
		c.Counts = append(make([]uint16, 0, len(s.Counts)), s.Counts...)
	}
	return c
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
