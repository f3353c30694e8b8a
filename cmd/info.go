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
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/will-rowe/sketchcodec/src/kmer"
	"github.com/will-rowe/sketchcodec/src/misc"
	"github.com/will-rowe/sketchcodec/src/pipeline"
	"github.com/will-rowe/sketchcodec/src/reporting"
	"github.com/will-rowe/sketchcodec/src/version"
)

// the command line arguments
var (
	infoFile      *string // sketch file to describe
	verifyHashes  *bool   // rebuild every hash from its k-mer and compare
	histogramDir  *string // directory to save count histograms to
	histogramBins *int    // number of histogram bins
)

// the info command (used by cobra)
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the sketches in a file",
	Long: `Describe the sketches in a file.

 Prints the container parameters and the size and filter metadata of each sketch. Binary
 sketches are shown as a container holding one sketch.`,
	Run: func(cmd *cobra.Command, args []string) {
		runInfo()
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return misc.CheckRequiredFlags(cmd.Flags())
	},
}

// a function to initialise the command line arguments
func init() {
	infoFile = infoCmd.Flags().StringP("input", "i", "", "sketch file to describe - required")
	verifyHashes = infoCmd.Flags().Bool("verify", false, "rebuild every hash from its k-mer and check it matches")
	histogramDir = infoCmd.Flags().String("histogram", "", "directory to save a k-mer count histogram for each sketch to")
	histogramBins = infoCmd.Flags().Int("bins", 20, "number of bins in each histogram")
	infoCmd.MarkFlagRequired("input")
	RootCmd.AddCommand(infoCmd)
}

/*
  The main function for the info command
*/
func runInfo() {
	defer startRun("info")()
	misc.ErrorCheck(misc.CheckFile(*infoFile))
	if *histogramDir != "" {
		misc.ErrorCheck(misc.CheckDir(*histogramDir, true))
	}
	hasher, err := kmer.HasherByName(*legacyHash)
	misc.ErrorCheck(err)
	info := &pipeline.Info{
		Version:          version.GetVersion(),
		Schema:           schemaFlag(),
		ValidateKmerSize: *validate,
		LegacyHasher:     hasher,
		LegacySeed:       *legacySeed,
	}
	c, err := pipeline.LoadContainer(info, *infoFile)
	misc.ErrorCheck(err)
	misc.ErrorCheck(describe(c))
}

// describe logs the container and its sketches, verifying and plotting them if asked
func describe(c *pipeline.Container) error {
	ms := c.Sketches
	log.Printf("%v", c.Source)
	log.Printf("\tk-mer size: %d", ms.Kmer)
	log.Printf("\talphabet: %v", ms.Alphabet)
	log.Printf("\tcanonical: %v", ms.Canonical)
	log.Printf("\tsketch size: %d", ms.SketchSize)
	log.Printf("\thash: %v (%d bits, seed %d)", ms.HashType, ms.HashBits, ms.HashSeed)
	log.Printf("\tsketches: %d", len(ms.Sketches))
	hasher, err := ms.Hasher()
	if *verifyHashes && err != nil {
		return err
	}
	for i := range ms.Sketches {
		s := &ms.Sketches[i]
		log.Printf("%v", s.Name)
		if s.SeqLength != nil {
			log.Printf("\tsequence length: %d", *s.SeqLength)
		}
		log.Printf("\trecords: %d", s.Len())
		keys := make([]string, 0, len(s.Filters))
		for key := range s.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			log.Printf("\t%v: %v", key, s.Filters[key])
		}
		if *verifyHashes {
			if err := s.VerifyHashes(hasher, ms.HashSeed, decodeOptions()...); err != nil {
				return fmt.Errorf("sketch %q: %w", s.Name, err)
			}
			log.Printf("\thashes verified")
		}
		if *histogramDir != "" && s.Len() != 0 {
			records, err := s.Records(decodeOptions()...)
			if err != nil {
				return fmt.Errorf("sketch %q: %w", s.Name, err)
			}
			plotFile := filepath.Join(*histogramDir, pipeline.CleanName(s.Name)+"-counts.png")
			if err := reporting.CountHistogram(records, *histogramBins, s.Name, plotFile); err != nil {
				return err
			}
			log.Printf("\tsaved count histogram to %v", plotFile)
		}
	}
	return nil
}
