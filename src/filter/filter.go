// Package filter contains the filtering passes that can be applied to a sketch before it is saved.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/will-rowe/sketchcodec/src/kmer"
)

// ErrInvalidParams is returned when the filter parameters are out of range
var ErrInvalidParams = errors.New("invalid filter parameters")

// Params for the abundance filter, a zero value switches that part of the filter off
type Params struct {
	LowAbundance  uint16  // minimum count for a record to be kept
	HighAbundance uint16  // maximum count for a record to be kept
	ErrorFraction float64 // share of the total count assumed to be sequencing error, used to derive LowAbundance when it isn't set
	StrandFilter  float64 // minimum share of a record's count seen on either strand
	SketchSize    int     // keep at most this many records
}

// DefaultParams returns parameters that only remove likely sequencing errors
func DefaultParams() Params {
	return Params{ErrorFraction: 0.001}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.ErrorFraction < 0 || p.ErrorFraction >= 1 {
		return fmt.Errorf("%w: error fraction must be in [0, 1), got %v", ErrInvalidParams, p.ErrorFraction)
	}
	if p.StrandFilter < 0 || p.StrandFilter > 0.5 {
		return fmt.Errorf("%w: strand filter must be in [0, 0.5], got %v", ErrInvalidParams, p.StrandFilter)
	}
	if p.HighAbundance != 0 && p.HighAbundance < p.LowAbundance {
		return fmt.Errorf("%w: high abundance cutoff (%d) is below low cutoff (%d)", ErrInvalidParams, p.HighAbundance, p.LowAbundance)
	}
	if p.SketchSize < 0 {
		return fmt.Errorf("%w: negative sketch size %d", ErrInvalidParams, p.SketchSize)
	}
	return nil
}

// Abundance filters records on their counts
type Abundance struct {
	params Params
}

// NewAbundance is the constructor for the abundance filter
func NewAbundance(p Params) (*Abundance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Abundance{params: p}, nil
}

// Filter returns the records that pass, in their original order, and the stats for the filtered sketch
func (a *Abundance) Filter(records []kmer.Record) ([]kmer.Record, map[string]string, error) {
	low := a.params.LowAbundance
	if low == 0 && a.params.ErrorFraction > 0 {
		low = errorCutoff(records, a.params.ErrorFraction)
	}
	high := a.params.HighAbundance

	kept := make([]kmer.Record, 0, len(records))
	for _, r := range records {
		if low != 0 && r.Count < low {
			continue
		}
		if high != 0 && r.Count > high {
			continue
		}
		if !a.strandOK(r) {
			continue
		}
		kept = append(kept, r)
		if a.params.SketchSize != 0 && len(kept) == a.params.SketchSize {
			break
		}
	}

	stats := map[string]string{
		"minCopies":     strconv.FormatUint(uint64(low), 10),
		"maxCopies":     strconv.FormatUint(uint64(high), 10),
		"errorFilter":   strconv.FormatFloat(a.params.ErrorFraction, 'g', -1, 64),
		"strandFilter":  strconv.FormatFloat(a.params.StrandFilter, 'g', -1, 64),
		"sketchSize":    strconv.Itoa(a.params.SketchSize),
		"inputRecords":  strconv.Itoa(len(records)),
		"outputRecords": strconv.Itoa(len(kept)),
	}
	return kept, stats, nil
}

// strandOK checks the forward share of a record's count when the producer recorded one
func (a *Abundance) strandOK(r kmer.Record) bool {
	if a.params.StrandFilter == 0 || r.ExtraCount == 0 || r.Count == 0 {
		return true
	}
	share := float64(r.ExtraCount) / float64(r.Count)
	return share >= a.params.StrandFilter && share <= 1-a.params.StrandFilter
}

// errorCutoff finds the low count cutoff that removes less than fraction of the total count
//
// It is one more than the largest count whose records (together with all records of a lower count) hold less than fraction of the total, or 0 if there is no such count.
func errorCutoff(records []kmer.Record, fraction float64) uint16 {
	byCount := make(map[uint16]uint64)
	var total uint64
	for _, r := range records {
		byCount[r.Count] += uint64(r.Count)
		total += uint64(r.Count)
	}
	if total == 0 {
		return 0
	}
	counts := make([]int, 0, len(byCount))
	for c := range byCount {
		counts = append(counts, int(c))
	}
	sort.Ints(counts)
	var cutoff uint16
	var cumulative uint64
	limit := fraction * float64(total)
	for _, c := range counts {
		cumulative += byCount[uint16(c)]
		if float64(cumulative) >= limit {
			break
		}
		if c == 65535 {
			break
		}
		cutoff = uint16(c) + 1
	}
	return cutoff
}

// Func is an adapter to use an ordinary function as a filter
type Func func(records []kmer.Record) ([]kmer.Record, map[string]string, error)

// Filter calls f
func (f Func) Filter(records []kmer.Record) ([]kmer.Record, map[string]string, error) {
	return f(records)
}
