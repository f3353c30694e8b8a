// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.



package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/will-rowe/sketchcodec/src/filter"
	"github.com/will-rowe/sketchcodec/src/misc"
	"github.com/will-rowe/sketchcodec/src/sketch"
	"github.com/will-rowe/sketchcodec/src/store"
)

// the command line arguments
var (
	filterIn      *string  // container to filter
	filterOut     *string  // container to write the filtered sketches to
	lowAbundance  *uint    // minimum count to keep a record
	highAbundance *uint    // maximum count to keep a record
	errorFraction *float64 // share of the total count assumed to be sequencing error
	strandFilter  *float64 // minimum share of a count seen on either strand
	sketchSize    *int     // maximum number of records to keep per sketch
)

// the filter command (used by cobra)
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter the records of every sketch in a container",
	Long: `Filter the records of every sketch in a container.

 Records are removed by count (--low/--high, or a low cutoff derived from --err), by strand
 balance (--strand, only for sketches that recorded it) and by sketch size (--size). The
 settings and record numbers are added to each sketch's filter metadata.`,
	Run: func(cmd *cobra.Command, args []string) {
		runFilter()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	filterIn = filterCmd.Flags().StringP("input", "i", "", "sketch container to filter (.json or .msgpack, optionally .gz/.zst) - required")
	filterOut = filterCmd.Flags().StringP("output", "o", "", "file to write the filtered container to - required")
	lowAbundance = filterCmd.Flags().Uint("low", 0, "minimum count for a record to be kept (0 = derive from --err)")
	highAbundance = filterCmd.Flags().Uint("high", 0, "maximum count for a record to be kept (0 = no maximum)")
	errorFraction = filterCmd.Flags().Float64("err", filter.DefaultParams().ErrorFraction, "share of the total count assumed to be sequencing error")
	strandFilter = filterCmd.Flags().Float64("strand", 0, "minimum share of a record's count seen on either strand (0-0.5)")
	sketchSize = filterCmd.Flags().Int("size", 0, "keep at most this many records per sketch (0 = keep all)")
	filterCmd.MarkFlagRequired("input")
	filterCmd.MarkFlagRequired("output")
	RootCmd.AddCommand(filterCmd)
}

// a function to check user supplied parameters and build the filter
func filterParamCheck() (*filter.Abundance, error) {
	if err := misc.CheckFile(*filterIn); err != nil {
		return nil, err
	}
	for _, file := range []string{*filterIn, *filterOut} {
		format, _, err := store.FormatOf(file)
		if err != nil {
			return nil, err
		}
		if !format.IsContainer() {
			return nil, fmt.Errorf("%w: %q is not a sketch container", store.ErrWrongFormat, file)
		}
	}
	if *lowAbundance > 65535 || *highAbundance > 65535 {
		return nil, fmt.Errorf("%w: abundance cutoffs must fit a 16 bit count", filter.ErrInvalidParams)
	}
	return filter.NewAbundance(filter.Params{
		LowAbundance:  uint16(*lowAbundance),
		HighAbundance: uint16(*highAbundance),
		ErrorFraction: *errorFraction,
		StrandFilter:  *strandFilter,
		SketchSize:    *sketchSize,
	})
}

/*
  The main function for the filter command
*/
func runFilter() {
	defer startRun("filter")()
	start := time.Now()
	log.Printf("checking parameters...")
	f, err := filterParamCheck()
	misc.ErrorCheck(err)
	log.Printf("\tinput container: %v", *filterIn)
	log.Printf("\toutput container: %v", *filterOut)
	ms, err := store.LoadMulti(*filterIn, decodeOptions()...)
	misc.ErrorCheck(err)
	log.Printf("\tloaded %d sketches", len(ms.Sketches))
	misc.ErrorCheck(filterContainer(ms, f, decodeOptions()...))
	misc.ErrorCheck(store.DumpMulti(ms, *filterOut))
	log.Printf("finished in %s", time.Since(start))
}

// filterContainer filters every sketch in place, the container is left unchanged if any sketch fails
func filterContainer(ms *sketch.MultiSketch, f sketch.Filter, opts ...sketch.DecodeOption) error {
	filtered := make([]sketch.JSONSketch, len(ms.Sketches))
	for i := range ms.Sketches {
		s, err := ms.Sketches[i].Filtered(f, opts...)
		if err != nil {
			return fmt.Errorf("could not filter sketch %q: %w", ms.Sketches[i].Name, err)
		}
		log.Printf("\t%v: kept %d of %d records", s.Name, s.Len(), ms.Sketches[i].Len())
		filtered[i] = *s
	}
	ms.Sketches = filtered
	return nil
}
