package sketch

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is wrapped by ParseError
	ErrParse = errors.New("could not parse hash")

	// ErrMissingField is returned by the strict schema when k-mers or counts are absent
	ErrMissingField = errors.New("required field missing from sketch")

	// ErrLengthMismatch is returned when the parallel hash/k-mer/count lists differ in length
	ErrLengthMismatch = errors.New("sketch fields have different lengths")

	// ErrUnknownSchema is returned for a schema version with no decoder
	ErrUnknownSchema = errors.New("unknown sketch schema version")

	// ErrEmptyName is returned when a JSON sketch is created without a name
	ErrEmptyName = errors.New("sketch name is empty")

	// ErrEmptySketch is returned when a binary sketch is created from no records
	ErrEmptySketch = errors.New("can't create a binary sketch from zero records")

	// ErrMixedKmerLength is returned when the records of one binary sketch have different k-mer sizes
	ErrMixedKmerLength = errors.New("records have different k-mer sizes")

	// ErrCorrupt is returned when binary sketch data doesn't match its layout
	ErrCorrupt = errors.New("binary sketch data is corrupt")

	// ErrKmerLengthMismatch is returned by container validation when a sketch doesn't use the container k-mer size
	ErrKmerLengthMismatch = errors.New("sketch k-mer size does not match container")
)

// ParseError records the position of a hash that could not be parsed
type ParseError struct {
	Index int
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: entry %d (%q): %v", ErrParse, e.Index, e.Text, e.Err)
}

// Unwrap lets errors.Is match both ErrParse and the strconv error
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
