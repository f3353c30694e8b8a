package sketch

import (
	"fmt"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

// Schema is the version of the JSON sketch schema, it decides what happens when k-mers or counts are absent
type Schema uint8

const (
	// SchemaDefault defers to the decoder's configured schema
	SchemaDefault Schema = iota

	// SchemaStrict requires k-mers and counts to be present
	SchemaStrict

	// SchemaTolerant defaults absent counts to 1 and sets the extra count to half the count
	SchemaTolerant
)

func (s Schema) String() string {
	switch s {
	case SchemaDefault:
		return "default"
	case SchemaStrict:
		return "strict"
	case SchemaTolerant:
		return "tolerant"
	}
	return fmt.Sprintf("schema(%d)", uint8(s))
}

// schemaDecoder turns the i'th entry of a JSON sketch into a record, once the hash has been parsed
type schemaDecoder interface {
	check(s *JSONSketch) error
	record(s *JSONSketch, i int, hash uint64) (kmer.Record, error)
}

var schemaDecoders = map[Schema]schemaDecoder{
	SchemaStrict:   strictSchema{},
	SchemaTolerant: tolerantSchema{},
}

func decoderFor(s Schema) (schemaDecoder, error) {
	dec, ok := schemaDecoders[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, uint8(s))
	}
	return dec, nil
}

// checkLengths makes sure any present parallel list matches the hash list
func checkLengths(s *JSONSketch) error {
	if s.Kmers != nil && len(s.Kmers) != len(s.Hashes) {
		return fmt.Errorf("%w: %d hashes, %d k-mers", ErrLengthMismatch, len(s.Hashes), len(s.Kmers))
	}
	if s.Counts != nil && len(s.Counts) != len(s.Hashes) {
		return fmt.Errorf("%w: %d hashes, %d counts", ErrLengthMismatch, len(s.Hashes), len(s.Counts))
	}
	return nil
}

type strictSchema struct{}

func (strictSchema) check(s *JSONSketch) error {
	if s.Kmers == nil {
		return fmt.Errorf("%w: kmers", ErrMissingField)
	}
	if s.Counts == nil {
		return fmt.Errorf("%w: counts", ErrMissingField)
	}
	return checkLengths(s)
}

func (strictSchema) record(s *JSONSketch, i int, hash uint64) (kmer.Record, error) {
	bitmer, err := kmer.Pack([]byte(s.Kmers[i]))
	if err != nil {
		return kmer.Record{}, fmt.Errorf("entry %d: %w", i, err)
	}
	return kmer.Record{Hash: hash, Kmer: bitmer, Count: s.Counts[i]}, nil
}

type tolerantSchema struct{}

func (tolerantSchema) check(s *JSONSketch) error {
	return checkLengths(s)
}

func (tolerantSchema) record(s *JSONSketch, i int, hash uint64) (kmer.Record, error) {
	var bitmer kmer.Bitmer
	if s.Kmers != nil {
		var err error
		if bitmer, err = kmer.Pack([]byte(s.Kmers[i])); err != nil {
			return kmer.Record{}, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	count := uint16(1)
	if s.Counts != nil {
		count = s.Counts[i]
	}
	return kmer.Record{Hash: hash, Kmer: bitmer, Count: count, ExtraCount: count / 2}, nil
}
